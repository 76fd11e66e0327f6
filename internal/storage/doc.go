// Package storage provides SQLite-based persistence for indexed netlist data.
//
// The storage layer manages:
//   - Library metadata
//   - Netlist file information and content hashes
//   - Subcircuit cells with their metadata and pin order
//   - Device instances and their extra parameters
//   - Full-text search indexes over cell metadata
//
// # Database Schema
//
// Tables:
//   - libraries: Library metadata (root path, name, counters)
//   - files: Netlist file paths and SHA-256 hashes
//   - cells: Subcircuit cells (name, description, equation, pin order)
//   - cells_fts: FTS5 full-text search index over cell metadata
//   - devices: Transistor and diode instances per cell
//   - device_params: Extra key=value parameters per device
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.netcell/catalogs/stdcells.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Store a parsed cell
//	cellID, err := db.StoreCell(ctx, fileID, 0, cell)
//
//	// Bring it back as a live netlist.Cell
//	cell, err := db.LoadCell(ctx, cellID)
//
// # Transactions
//
// Use transactions for atomic operations:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	// Multiple operations in transaction
//	err = tx.UpsertFile(ctx, file)
//	_ = tx.DeleteCellsByFile(ctx, file.ID)
//	for i, cell := range parsed.Cells() {
//	    _, _ = tx.StoreCell(ctx, file.ID, i, cell)
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Incremental Updates
//
// Check file hashes to detect changes:
//
//	stored, err := db.GetFile(ctx, libraryID, filePath)
//	currentHash := sha256.Sum256(content)
//
//	if err == nil && stored.ContentHash == currentHash {
//	    // File unchanged, skip re-indexing
//	    return nil
//	}
//
//	// File changed, replace its cells
//	db.DeleteCellsByFile(ctx, stored.ID)
//
// # Full-Text Search
//
// Query cell metadata using BM25 ranking:
//
//	matches, err := db.SearchCells(ctx, libraryID, "nand", 10)
//	for _, m := range matches {
//	    fmt.Printf("%s (%s): score %.3f\n", m.Name, m.FilePath, m.Score)
//	}
//
// FTS5 indexes are automatically updated by triggers when cells are
// inserted or deleted, including deletes cascaded from files.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler and the fts5 build tag
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - FTS5 built in, no C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
