// Package searcher implements catalog queries over indexed cells:
// full-text search, exact lookup, and browsing.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    LibraryID: libraryID,
//	    Query:     "nand gate",
//	    Limit:     10,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.Name, result.Score)
//	}
//
// # Full-Text Search
//
// Search runs a BM25-ranked FTS5 query over cell names, descriptions,
// and equations. Raw BM25 scores are normalized into (0, 1] with higher
// meaning more relevant. Queries are sanitized before reaching FTS5, so
// user input cannot smuggle in Boolean operators or wildcards.
//
// # Exact Lookup
//
// FindCell retrieves a single cell by name and rebuilds it completely,
// including its device instances and the canonical netlist text:
//
//	detail, err := s.FindCell(ctx, libraryID, "NAND2")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // no such cell in this library
//	}
//	fmt.Println(detail.Instances) // one device per line
//	fmt.Println(detail.Netlist)   // the full .subckt block
//
// # Query Caching
//
// Search responses can be cached in an in-process LRU (1000 entries)
// keyed by a SHA-256 of (query, library, limit). Entries expire after a
// TTL (default one hour). Cache hits are flagged on the response:
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    LibraryID: libraryID,
//	    Query:     "nand",
//	    UseCache:  true,
//	})
//	if resp.CacheHit {
//	    // served from cache
//	}
//
// After a reindex the cache must be flushed with InvalidateCache, since
// cached responses may reference deleted cells.
package searcher
