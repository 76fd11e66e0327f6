package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexLibraryTool returns the tool definition for index_library
func indexLibraryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_library",
		Description: "Index a directory of SPICE netlist files to make its cells searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the library root (must contain netlist files: .sp, .cir, .net, .spice)",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all files ignoring content hashes (full rebuild)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// listCellsTool returns the tool definition for list_cells
func listCellsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_cells",
		Description: "List the cells of an indexed netlist library in file order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed library root",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of cells to return (1-500)",
					"default":     100,
					"minimum":     1,
					"maximum":     500,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCellsTool returns the tool definition for search_cells
func searchCellsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_cells",
		Description: "Search indexed cells by name, description, or equation keywords",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed library root",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (keywords matched against cell names, descriptions, and equations)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getCellTool returns the tool definition for get_cell
func getCellTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_cell",
		Description: "Fetch one cell by exact name: metadata, pins, devices, and the serialized netlist block",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed library root",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Exact cell (subcircuit) name, case-sensitive",
				},
			},
			Required: []string{"path", "name"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a netlist library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a library root",
				},
			},
			Required: []string{"path"},
		},
	}
}
