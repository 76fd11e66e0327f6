package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spicelab/netcell/internal/indexer"
	"github.com/spicelab/netcell/internal/searcher"
	"github.com/spicelab/netcell/internal/storage"
	"github.com/spicelab/netcell/pkg/netlist"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeCellNotFound       = -32001 // Named cell does not exist in the catalog
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Library not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexLibrary handles the index_library tool invocation
func (s *Server) handleIndexLibrary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "path",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	forceReindex := getBoolDefault(args, "force_reindex", false)

	// One indexing run at a time; a second request fails fast instead of queueing
	if !s.indexLock.TryAcquire() {
		return nil, wrapMCPError(ErrorCodeIndexingInProgress, indexer.ErrIndexingInProgress, map[string]interface{}{
			"path": path,
		})
	}
	defer s.indexLock.Release()

	config := &indexer.Config{
		Force: forceReindex,
	}

	// Run indexing
	stats, err := s.indexer.IndexLibrary(ctx, path, config)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cached query results may now be stale
	s.searcher.InvalidateCache()

	// Format response
	response := map[string]interface{}{
		"indexed":        true,
		"files_indexed":  stats.FilesIndexed,
		"files_skipped":  stats.FilesSkipped,
		"files_failed":   stats.FilesFailed,
		"cells_stored":   stats.CellsStored,
		"devices_stored": stats.DevicesStored,
		"duration_ms":    stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListCells handles the list_cells tool invocation
func (s *Server) handleListCells(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "path",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	library, mcpErr := s.lookupLibrary(ctx, path)
	if mcpErr != nil {
		return nil, mcpErr
	}

	cells, err := s.searcher.ListCells(ctx, library.ID, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list cells", map[string]interface{}{
			"error": err.Error(),
		})
	}

	cellList := make([]map[string]interface{}, len(cells))
	for i, c := range cells {
		cellList[i] = map[string]interface{}{
			"name":         c.Name,
			"file":         c.FilePath,
			"description":  c.Description,
			"equation":     c.Equation,
			"pins":         strings.Fields(c.PinOrder),
			"device_count": c.DeviceCount,
		}
	}

	response := map[string]interface{}{
		"library": path,
		"count":   len(cellList),
		"cells":   cellList,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCells handles the search_cells tool invocation
func (s *Server) handleSearchCells(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "path",
		})
	}

	query, err := requireString(args, "query")
	if err != nil {
		// A present-but-non-text query is a params problem, not an empty query
		code := ErrorCodeEmptyQuery
		if errors.Is(err, netlist.ErrTypeMismatch) {
			code = ErrorCodeInvalidParams
		}
		return nil, wrapMCPError(code, err, map[string]interface{}{
			"param": "query",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	library, mcpErr := s.lookupLibrary(ctx, path)
	if mcpErr != nil {
		return nil, mcpErr
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		LibraryID: library.ID,
		UseCache:  true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"rank":         r.Rank,
			"score":        r.Score,
			"name":         r.Name,
			"file":         r.FilePath,
			"description":  r.Description,
			"equation":     r.Equation,
			"pins":         strings.Fields(r.PinOrder),
			"device_count": r.DeviceCount,
		}
	}

	response := map[string]interface{}{
		"query":         query,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetCell handles the get_cell tool invocation
func (s *Server) handleGetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "path",
		})
	}

	name, err := requireString(args, "name")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "name",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	library, mcpErr := s.lookupLibrary(ctx, path)
	if mcpErr != nil {
		return nil, mcpErr
	}

	detail, err := s.searcher.FindCell(ctx, library.ID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, wrapMCPError(ErrorCodeCellNotFound, err, map[string]interface{}{
			"name": name,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load cell", map[string]interface{}{
			"error": err.Error(),
		})
	}

	instances := detail.Cell.Instances()
	devices := make([]map[string]interface{}, len(instances))
	for i, d := range instances {
		params := make([]string, 0, len(d.Params()))
		for _, p := range d.Params() {
			params = append(params, p.Key+"="+p.Value)
		}
		devices[i] = map[string]interface{}{
			"name":      d.Name(),
			"kind":      string(d.Kind()),
			"model":     d.Model(),
			"terminals": d.Terminals(),
			"params":    params,
		}
	}

	response := map[string]interface{}{
		"name":         detail.Cell.Name(),
		"description":  detail.Cell.Description(),
		"equation":     detail.Cell.Equation(),
		"pins":         detail.Cell.Pins(),
		"file":         detail.Record.FilePath,
		"device_count": len(devices),
		"devices":      devices,
		"netlist":      detail.Netlist,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, wrapMCPError(ErrorCodeInvalidParams, err, map[string]interface{}{
			"param": "path",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Try to get library
	library, err := s.storage.GetLibrary(ctx, path)
	if err == storage.ErrNotFound {
		// Library not indexed
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Library not indexed. Use index_library tool to index this library.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get library status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Get detailed status
	status, err := s.storage.GetStatus(ctx, library.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Format response
	response := map[string]interface{}{
		"indexed": true,
		"library": map[string]interface{}{
			"path":            library.RootPath,
			"name":            library.Name,
			"index_version":   library.IndexVersion,
			"last_indexed_at": library.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"files_count":   status.FilesCount,
			"failed_files":  status.FailedFiles,
			"cells_count":   status.CellsCount,
			"devices_count": status.DevicesCount,
			"index_size_mb": fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_index_built":     status.Health.FTSIndexBuilt,
			"all_files_parsed":    status.Health.AllFilesParsed,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// lookupLibrary resolves an indexed library root, reporting not-indexed
// paths as an MCP error
func (s *Server) lookupLibrary(ctx context.Context, path string) (*storage.Library, error) {
	library, err := s.storage.GetLibrary(ctx, path)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeNotIndexed, "library not indexed", map[string]interface{}{
			"path": path,
			"hint": "use the index_library tool first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up library", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return library, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// wrapMCPError formats an MCP error around a causing error, keeping the
// cause available to errors.Is
func wrapMCPError(code int, err error, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: err.Error(),
		Data:    data,
		err:     err,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}

	err error
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func (e *MCPError) Unwrap() error {
	return e.err
}

// requireString extracts a required text argument. A present value of the
// wrong dynamic type reports a type mismatch rather than a missing param.
func requireString(args map[string]interface{}, key string) (string, error) {
	raw, present := args[key]
	if !present {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", netlist.ErrTypeMismatch, key, raw)
	}
	if val == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return val, nil
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	// Check for netlist files
	if !hasNetlistFiles(path) {
		return ErrNoNetlistFiles
	}

	return nil
}

// hasNetlistFiles reports whether at least one recognized netlist file
// exists under root
func hasNetlistFiles(root string) bool {
	found := false
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		for _, known := range indexer.DefaultExtensions {
			if ext == known {
				found = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoNetlistFiles  = errors.New("directory does not contain netlist files")
)
