// Package mcp implements the Model Context Protocol (MCP) server for netcell.
//
// The MCP server exposes five tools to AI coding assistants:
//   - index_library: Index a directory of SPICE netlist files
//   - list_cells: Browse the cells of an indexed library
//   - search_cells: Keyword search over cell names, descriptions, and equations
//   - get_cell: Fetch one cell with its devices and serialized netlist
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: index_library
//
// Index a netlist library to make its cells searchable:
//
//	Request:
//	{
//	  "name": "index_library",
//	  "arguments": {
//	    "path": "/path/to/library",
//	    "force_reindex": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 132,
//	  "files_skipped": 18,
//	  "files_failed": 1,
//	  "cells_stored": 417,
//	  "devices_stored": 3208,
//	  "duration_ms": 244
//	}
//
// Indexing is exclusive: a second index_library call while one is running
// fails fast with error code -32002 instead of queueing.
//
// # Tool: search_cells
//
// Search indexed cells by keyword:
//
//	Request:
//	{
//	  "name": "search_cells",
//	  "arguments": {
//	    "path": "/path/to/library",
//	    "query": "nand gate",
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "query": "nand gate",
//	  "total_results": 2,
//	  "cache_hit": false,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "score": 0.87,
//	      "name": "NAND2",
//	      "file": "logic/nand.sp",
//	      "description": "two input nand gate",
//	      "equation": "Y=!(A&B)",
//	      "pins": ["VDD", "VSS", "A", "B", "Y"],
//	      "device_count": 4
//	    }
//	  ]
//	}
//
// # Tool: get_cell
//
// Fetch one cell by exact name. The response includes the device list and
// the canonical serialized netlist block, ready to paste into a deck:
//
//	Request:
//	{
//	  "name": "get_cell",
//	  "arguments": {
//	    "path": "/path/to/library",
//	    "name": "NAND2"
//	  }
//	}
//
// # Tool: get_status
//
// Check indexing status. An unindexed path is not an error:
//
//	Response:
//	{
//	  "indexed": true,
//	  "library": {"path": "...", "name": "...", "index_version": "1.0.0"},
//	  "statistics": {"files_count": 150, "cells_count": 417, "devices_count": 3208},
//	  "health": {"database_accessible": true, "fts_index_built": true, "all_files_parsed": false}
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "path",
//	      "reason": "path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments, including
//     non-text values where text is required)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Cell not found
//   - -32002: Indexing in progress
//   - -32003: Library not indexed
//   - -32004: Query parameter is empty
//
// # MCP Client Configuration
//
// Configure in the client's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "netcell": {
//	      "command": "/usr/local/bin/netcell",
//	      "env": {
//	        "NETCELL_DB_PATH": "~/.netcell/catalogs"
//	      }
//	    }
//	  }
//	}
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp
