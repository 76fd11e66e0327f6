// Package indexer coordinates the end-to-end indexing pipeline for
// netlist libraries.
//
// The indexer walks a directory tree, parses every recognized netlist
// file, and stores the resulting cells in the catalog database, managing
// concurrency and error handling along the way.
//
// # Basic Usage
//
//	idx := indexer.New(store)
//
//	stats, err := idx.IndexLibrary(ctx, "/path/to/library", nil)
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
// The indexer executes a multi-stage pipeline:
//
//  1. Discovery: Find all netlist files (.sp, .cir, .net, .spice),
//     skipping hidden directories
//  2. Incremental Decision: Compare file hashes, skip unchanged files
//  3. Parse: Run the netlist parser over each changed file (parallel)
//  4. Store: Persist cells to SQLite in per-batch transactions
//
// # Incremental Indexing
//
// By default, the indexer only processes changed files:
//
//	// First index: processes all files
//	stats1, _ := idx.IndexLibrary(ctx, root, nil)
//	// Files: 247 indexed, 0 skipped
//
//	// Subsequent index: only changed files
//	stats2, _ := idx.IndexLibrary(ctx, root, nil)
//	// Files: 3 indexed, 244 skipped
//
// File change detection uses SHA-256 content hashing. When a file has
// changed, its old cells are deleted inside the same transaction that
// stores the new ones, so a reader never sees a half-indexed file.
// Config.Force disables the hash comparison and rebuilds every file.
//
// # Concurrent Processing
//
// Files are processed in batches, one transaction per batch, with a
// semaphore bounding the number of files parsed at once. Default:
// NumCPU() workers and 20 files per batch, tunable through Config.
//
// # Error Handling
//
// A file that fails to parse does not abort the run. The parse error is
// recorded on the file's catalog row (surfaced later by status queries),
// the failure is counted, and indexing moves on:
//
//	stats, err := idx.IndexLibrary(ctx, root, nil)
//	// err only returned for fatal errors (e.g., storage failure)
//
//	if stats.FilesFailed > 0 {
//	    for _, msg := range stats.ErrorMessages {
//	        log.Printf("index: %s", msg)
//	    }
//	}
//
// # Index Locking
//
// IndexLock provides a non-blocking guard so only one indexing run is
// active at a time:
//
//	var lock indexer.IndexLock
//	if !lock.TryAcquire() {
//	    return errors.New("indexing already in progress")
//	}
//	defer lock.Release()
package indexer
