package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spicelab/netcell/internal/storage"
	"github.com/spicelab/netcell/pkg/netlist"
)

// SearchRequest contains parameters for a cell search operation
type SearchRequest struct {
	Query     string
	Limit     int
	LibraryID int64
	UseCache  bool // Whether to use the query cache
	CacheTTL  time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []CellResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// CellResult is one ranked match from full-text cell search
type CellResult struct {
	CellID      int64
	Rank        int
	Score       float64
	Name        string
	FilePath    string
	Description string
	Equation    string
	PinOrder    string
	DeviceCount int
}

// CellDetail bundles everything known about a single cell: its catalog
// record, the reconstructed live cell, and its canonical netlist text.
type CellDetail struct {
	Record    *storage.CellRecord
	Cell      *netlist.Cell
	Instances string // Display form of every device, one per line
	Netlist   string // Canonical netlist block for the cell
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher coordinates catalog queries: full-text search, exact lookup,
// and browsing
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(storage storage.Storage) *Searcher {
	// Create LRU cache with 1000 entry limit
	// Cache will automatically evict least recently used entries
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: storage,
		cache:   cache,
	}
}

// Search performs a BM25-ranked full-text search over cell metadata
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	// Check cache if enabled
	if req.UseCache {
		cached, err := s.checkCache(req)
		if err == nil && cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	matches, err := s.storage.SearchCells(ctx, req.LibraryID, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]CellResult, len(matches))
	for i, m := range matches {
		results[i] = CellResult{
			CellID:      m.CellID,
			Rank:        i + 1,
			Score:       m.Score,
			Name:        m.Name,
			FilePath:    m.FilePath,
			Description: m.Description,
			Equation:    m.Equation,
			PinOrder:    m.PinOrder,
			DeviceCount: m.DeviceCount,
		}
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	// Store in cache if enabled
	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// FindCell looks up a cell by exact name and reconstructs it fully.
// When the same cell name appears in several files, the first file in
// path order wins.
func (s *Searcher) FindCell(ctx context.Context, libraryID int64, name string) (*CellDetail, error) {
	records, err := s.storage.FindCellsByName(ctx, libraryID, name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cell %q: %w", name, storage.ErrNotFound)
	}

	record := records[0]
	cell, err := s.storage.LoadCell(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cell %q: %w", name, err)
	}

	doc := netlist.NewNetlist()
	doc.AddCell(cell)

	return &CellDetail{
		Record:    record,
		Cell:      cell,
		Instances: cell.FormatInstances(),
		Netlist:   strings.Join(doc.Lines(), "\n"),
	}, nil
}

// ListCells returns catalog records for browsing, in file order.
// A limit of 0 or less returns everything.
func (s *Searcher) ListCells(ctx context.Context, libraryID int64, limit int) ([]*storage.CellRecord, error) {
	return s.storage.ListCells(ctx, libraryID, limit)
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = 10 // Default limit
	}

	if req.Limit > 100 {
		req.Limit = 100 // Max limit
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour // Default TTL
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req SearchRequest) (*SearchResponse, error) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)

	if !found {
		s.cacheMu.RUnlock()
		return nil, fmt.Errorf("cache miss")
	}

	// Check if entry has expired while holding read lock to avoid race condition
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		// Remove expired entry - need write lock
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, fmt.Errorf("cache expired")
	}

	// Entry is valid - return a copy while still holding read lock
	// to ensure entry isn't modified during copy
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, nil
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	hash := computeQueryHash(req)

	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a copy of a SearchResponse. CellResult
// holds only value fields, so copying the slice is enough.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]CellResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)

	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	// Build deterministic string representation
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", req.LibraryID))
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", req.Limit))

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache removes cached queries after a reindex.
// LRU cache doesn't support filtering by library, so the whole cache
// is purged.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}
