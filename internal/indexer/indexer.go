package indexer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spicelab/netcell/internal/storage"
	"github.com/spicelab/netcell/pkg/netlist"
)

// DefaultExtensions are the netlist file extensions recognized during
// discovery. Matching is case-insensitive.
var DefaultExtensions = []string{".sp", ".cir", ".net", ".spice"}

// Indexer coordinates the indexing pipeline: discover -> parse -> store
type Indexer struct {
	storage storage.Storage

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers    int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize  int      // Number of files to commit per transaction (default: 20)
	Extensions []string // File extensions to index (default: DefaultExtensions)
	Force      bool     // Re-index every file, ignoring content hashes
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	CellsStored   int
	DevicesStored int
	Duration      time.Duration
	ErrorMessages []string
}

// New creates a new Indexer instance
func New(storage storage.Storage) *Indexer {
	return &Indexer{
		storage: storage,
		workers: runtime.NumCPU(),
	}
}

// IndexLibrary indexes an entire directory tree of netlist files
func (idx *Indexer) IndexLibrary(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultExtensions
	}
	idx.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Get or create library
	library, err := idx.getOrCreateLibrary(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create library: %w", err)
	}

	// Discover netlist files
	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	// Index files concurrently
	err = idx.indexFiles(ctx, library, files, config, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	// Update library statistics
	if err := idx.updateLibraryStats(ctx, library); err != nil {
		return nil, fmt.Errorf("failed to update library stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// getOrCreateLibrary retrieves an existing library or creates a new one
func (idx *Indexer) getOrCreateLibrary(ctx context.Context, rootPath string) (*storage.Library, error) {
	library, err := idx.storage.GetLibrary(ctx, rootPath)
	if err == nil {
		return library, nil
	}

	if err != storage.ErrNotFound {
		return nil, err
	}

	library = &storage.Library{
		RootPath:     rootPath,
		Name:         filepath.Base(rootPath),
		IndexVersion: storage.CurrentSchemaVersion,
	}

	if err := idx.storage.CreateLibrary(ctx, library); err != nil {
		return nil, err
	}

	return library, nil
}

// discoverFiles finds all netlist files under the library root
func (idx *Indexer) discoverFiles(rootPath string, config *Config) ([]string, error) {
	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			// Skip hidden directories
			if path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// indexFiles indexes a batch of files concurrently
func (idx *Indexer) indexFiles(ctx context.Context, library *storage.Library, files []string, config *Config, stats *Statistics) error {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var (
		indexed int32
		skipped int32
		failed  int32
		cells   int32
		devices int32
	)

	// Process files in batches for transaction efficiency
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, library, batch, config.Force, semaphore, &indexed, &skipped, &failed, &cells, &devices, &mu, stats)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return err
	}

	// Update statistics
	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.CellsStored = int(cells)
	stats.DevicesStored = int(devices)

	return nil
}

// indexBatch indexes a batch of files within a transaction
func (idx *Indexer) indexBatch(ctx context.Context, library *storage.Library, files []string,
	force bool, semaphore chan struct{}, indexed, skipped, failed, cells, devices *int32,
	mu *sync.Mutex, stats *Statistics) error {

	// Start a transaction for this batch
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Process each file in the batch
	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		err := idx.indexFile(ctx, tx, library, filePath, force, indexed, skipped, cells, devices)
		<-semaphore // Release semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			// Continue with other files
			continue
		}
	}

	// Commit the batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// indexFile indexes a single netlist file. Parse failures are recorded
// on the file row and reported as an error so the caller counts them.
func (idx *Indexer) indexFile(ctx context.Context, store storage.Storage, library *storage.Library,
	filePath string, force bool, indexed, skipped, cells, devices *int32) error {

	// Compute relative path
	relPath, err := filepath.Rel(library.RootPath, filePath)
	if err != nil {
		return err
	}

	content, modTime, sizeBytes, err := readFile(filePath)
	if err != nil {
		return err
	}
	hash := sha256.Sum256(content)

	// Check if file has changed and handle incremental update
	shouldSkip, err := idx.checkFileChanged(ctx, store, library.ID, relPath, hash, force, skipped)
	if err != nil {
		return err
	}
	if shouldSkip {
		return nil
	}

	// Parse the netlist
	parsed, parseErr := netlist.Parse(bytes.NewReader(content))

	// Create or update file record
	file := &storage.File{
		LibraryID:   library.ID,
		FilePath:    relPath,
		ContentHash: hash,
		ModTime:     modTime,
		SizeBytes:   sizeBytes,
	}
	if parseErr != nil {
		errMsg := parseErr.Error()
		file.ParseError = &errMsg
	}

	if err := store.UpsertFile(ctx, file); err != nil {
		return err
	}

	// The file row keeps the parse error for status reporting; the
	// failure still counts against this indexing run
	if parseErr != nil {
		return parseErr
	}

	// Store cells in file order
	cellCount := 0
	deviceCount := 0
	for i, cell := range parsed.Cells() {
		if _, err := store.StoreCell(ctx, file.ID, i, cell); err != nil {
			return fmt.Errorf("failed to store cell %s: %w", cell.Name(), err)
		}
		cellCount++
		deviceCount += len(cell.Instances())
	}

	// Update counters
	atomic.AddInt32(indexed, 1)
	atomic.AddInt32(cells, int32(cellCount))
	atomic.AddInt32(devices, int32(deviceCount))

	return nil
}

// checkFileChanged checks if a file has changed and needs re-indexing
func (idx *Indexer) checkFileChanged(ctx context.Context, store storage.Storage, libraryID int64,
	relPath string, hash [32]byte, force bool, skipped *int32) (bool, error) {

	existingFile, err := store.GetFile(ctx, libraryID, relPath)
	if err == storage.ErrNotFound {
		// New file, needs indexing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// File exists - check if it has changed
	if !force && existingFile.ContentHash == hash {
		// File unchanged, skip
		atomic.AddInt32(skipped, 1)
		return true, nil
	}

	// File changed (or force rebuild) - delete old cells before re-indexing
	if err := store.DeleteCellsByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old cells: %w", err)
	}

	return false, nil
}

// updateLibraryStats updates the library's file and cell counts
func (idx *Indexer) updateLibraryStats(ctx context.Context, library *storage.Library) error {
	files, err := idx.storage.ListFiles(ctx, library.ID)
	if err != nil {
		return err
	}

	totalCells := 0
	for _, file := range files {
		cells, err := idx.storage.ListCellsByFile(ctx, file.ID)
		if err != nil {
			return err
		}
		totalCells += len(cells)
	}

	library.TotalFiles = len(files)
	library.TotalCells = totalCells
	library.LastIndexedAt = time.Now()

	return idx.storage.UpdateLibrary(ctx, library)
}

// readFile reads a file's content along with its modification time and size
func readFile(filePath string) ([]byte, time.Time, int64, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, time.Time{}, 0, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, time.Time{}, 0, err
	}

	return content, info.ModTime(), info.Size(), nil
}
