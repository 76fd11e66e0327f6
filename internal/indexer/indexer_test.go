package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicelab/netcell/internal/storage"
)

const inverterNetlist = `*      Description : inverting stage
*      Equation    : Y=!A
.subckt INV VDD VSS A Y
M1 Y VDD A VDD pmos L=1u
M2 Y VSS A VSS nmos L=1u
.ends

`

const nandNetlist = `*      Description : two input nand gate
*      Equation    : Y=!(A&B)
.subckt NAND2 VDD VSS A B Y
M1 Y VDD A VDD pmos
M2 Y VDD B VDD pmos
M3 Y net1 A VSS nmos
M4 net1 VSS B VSS nmos
.ends

`

// Missing .ends terminator
const brokenNetlist = `*      Description : truncated cell
*      Equation    : Y=A
.subckt BAD VDD VSS A Y
M1 Y VDD A VDD pmos
`

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")

	return store
}

// createTestFile creates a temporary netlist file for testing
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

// TestNew verifies indexer initialization
func TestNew(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)

	assert.NotNil(t, idx)
	assert.NotNil(t, idx.storage)
	assert.Equal(t, runtime.NumCPU(), idx.workers)
}

// TestDiscoverFiles_Success tests successful file discovery
func TestDiscoverFiles_Success(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "logic/nand.cir", nandNetlist)
	createTestFile(t, tmpDir, "io/pads.net", inverterNetlist)
	createTestFile(t, tmpDir, "analog/opamp.spice", inverterNetlist)

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: DefaultExtensions}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 4)
}

// TestDiscoverFiles_EmptyDirectory tests empty directory
func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: DefaultExtensions}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Empty(t, files)
}

// TestDiscoverFiles_SkipOtherFiles tests that non-netlist files are skipped
func TestDiscoverFiles_SkipOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "README.md", "# cells\n")
	createTestFile(t, tmpDir, "models.lib", "* models\n")

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: DefaultExtensions}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "inv.sp"))
}

// TestDiscoverFiles_CaseInsensitiveExtensions tests uppercase extensions
func TestDiscoverFiles_CaseInsensitiveExtensions(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "LEGACY.SP", inverterNetlist)
	createTestFile(t, tmpDir, "new.Spice", inverterNetlist)

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: DefaultExtensions}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 2)
}

// TestDiscoverFiles_SkipHiddenDirs tests that hidden directories are skipped
func TestDiscoverFiles_SkipHiddenDirs(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, ".backup/old.sp", inverterNetlist)

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: DefaultExtensions}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

// TestDiscoverFiles_CustomExtensions tests extension overrides
func TestDiscoverFiles_CustomExtensions(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "inv.ckt", inverterNetlist)
	createTestFile(t, tmpDir, "nand.sp", nandNetlist)

	idx := New(setupTestStorage(t))
	config := &Config{Extensions: []string{".ckt"}}

	files, err := idx.discoverFiles(tmpDir, config)

	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "inv.ckt"))
}

// TestCheckFileChanged_NewFile tests detection of new files
func TestCheckFileChanged_NewFile(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	library := &storage.Library{RootPath: "/lib", Name: "lib", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateLibrary(ctx, library))

	idx := New(store)
	var skipped int32

	shouldSkip, err := idx.checkFileChanged(ctx, store, library.ID, "new.sp", [32]byte{1}, false, &skipped)
	require.NoError(t, err)
	assert.False(t, shouldSkip)
	assert.Equal(t, int32(0), skipped)
}

// TestCheckFileChanged_UnchangedFile tests hash-based skip
func TestCheckFileChanged_UnchangedFile(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	library := &storage.Library{RootPath: "/lib", Name: "lib", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateLibrary(ctx, library))

	file := &storage.File{
		LibraryID:   library.ID,
		FilePath:    "inv.sp",
		ContentHash: [32]byte{1, 2, 3},
		ModTime:     time.Now(),
		SizeBytes:   100,
	}
	require.NoError(t, store.UpsertFile(ctx, file))

	idx := New(store)
	var skipped int32

	shouldSkip, err := idx.checkFileChanged(ctx, store, library.ID, "inv.sp", [32]byte{1, 2, 3}, false, &skipped)
	require.NoError(t, err)
	assert.True(t, shouldSkip)
	assert.Equal(t, int32(1), skipped)
}

// TestCheckFileChanged_ForceBypassesHash tests that force ignores matching hashes
func TestCheckFileChanged_ForceBypassesHash(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	library := &storage.Library{RootPath: "/lib", Name: "lib", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateLibrary(ctx, library))

	file := &storage.File{
		LibraryID:   library.ID,
		FilePath:    "inv.sp",
		ContentHash: [32]byte{1, 2, 3},
		ModTime:     time.Now(),
		SizeBytes:   100,
	}
	require.NoError(t, store.UpsertFile(ctx, file))

	idx := New(store)
	var skipped int32

	shouldSkip, err := idx.checkFileChanged(ctx, store, library.ID, "inv.sp", [32]byte{1, 2, 3}, true, &skipped)
	require.NoError(t, err)
	assert.False(t, shouldSkip)
	assert.Equal(t, int32(0), skipped)
}

// TestCheckFileChanged_ModifiedFile tests that stale cells are removed
func TestCheckFileChanged_ModifiedFile(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	library := &storage.Library{RootPath: "/lib", Name: "lib", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateLibrary(ctx, library))

	file := &storage.File{
		LibraryID:   library.ID,
		FilePath:    "inv.sp",
		ContentHash: [32]byte{1, 2, 3},
		ModTime:     time.Now(),
		SizeBytes:   100,
	}
	require.NoError(t, store.UpsertFile(ctx, file))

	idx := New(store)
	var skipped int32

	shouldSkip, err := idx.checkFileChanged(ctx, store, library.ID, "inv.sp", [32]byte{9, 9, 9}, false, &skipped)
	require.NoError(t, err)
	assert.False(t, shouldSkip)
	assert.Equal(t, int32(0), skipped)
}

// TestIndexLibrary_Success tests indexing a small library end to end
func TestIndexLibrary_Success(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "logic/nand.sp", nandNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)
	stats, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 2, stats.CellsStored)
	assert.Equal(t, 6, stats.DevicesStored)
	assert.Empty(t, stats.ErrorMessages)
	assert.Greater(t, stats.Duration, time.Duration(0))

	// Library counters are refreshed after the run
	library, err := store.GetLibrary(context.Background(), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 2, library.TotalFiles)
	assert.Equal(t, 2, library.TotalCells)
	assert.False(t, library.LastIndexedAt.IsZero())

	// Cells are queryable
	cells, err := store.FindCellsByName(context.Background(), library.ID, "NAND2")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "two input nand gate", cells[0].Description)
	assert.Equal(t, 4, cells[0].DeviceCount)
	assert.Equal(t, filepath.Join("logic", "nand.sp"), cells[0].FilePath)
}

// TestIndexLibrary_EmptyLibrary tests a directory with no netlist files
func TestIndexLibrary_EmptyLibrary(t *testing.T) {
	tmpDir := t.TempDir()

	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)
	stats, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
}

// TestIndexLibrary_IncrementalUpdate tests hash-based skipping on re-index
func TestIndexLibrary_IncrementalUpdate(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "nand.sp", nandNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)

	stats1, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats1.FilesIndexed)

	// Nothing changed: everything skips
	stats2, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats2.FilesIndexed)
	assert.Equal(t, 2, stats2.FilesSkipped)

	// Touch one file: only it re-indexes
	createTestFile(t, tmpDir, "inv.sp", strings.Replace(inverterNetlist, "L=1u", "L=2u", 1))

	stats3, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats3.FilesIndexed)
	assert.Equal(t, 1, stats3.FilesSkipped)
}

// TestIndexLibrary_ForceReindex tests the full-rebuild path
func TestIndexLibrary_ForceReindex(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "nand.sp", nandNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	idx := New(store)

	_, err := idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)

	// Unchanged files re-index instead of skipping
	stats, err := idx.IndexLibrary(ctx, tmpDir, &Config{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)

	// No duplicate cells after the rebuild
	library, err := store.GetLibrary(ctx, tmpDir)
	require.NoError(t, err)
	cells, err := store.ListCells(ctx, library.ID, 0)
	require.NoError(t, err)
	assert.Len(t, cells, 2)
}

// TestIndexLibrary_ReindexReplacesCells tests that stale cells disappear
func TestIndexLibrary_ReindexReplacesCells(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	idx := New(store)

	_, err := idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)

	// Rename the cell and re-index
	createTestFile(t, tmpDir, "inv.sp", strings.Replace(inverterNetlist, "INV", "INVX1", 1))

	_, err = idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)

	library, err := store.GetLibrary(ctx, tmpDir)
	require.NoError(t, err)

	old, err := store.FindCellsByName(ctx, library.ID, "INV")
	require.NoError(t, err)
	assert.Empty(t, old)

	renamed, err := store.FindCellsByName(ctx, library.ID, "INVX1")
	require.NoError(t, err)
	assert.Len(t, renamed, 1)
}

// TestIndexLibrary_WithParseErrors tests that broken files are recorded, not fatal
func TestIndexLibrary_WithParseErrors(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)
	createTestFile(t, tmpDir, "bad.sp", brokenNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	idx := New(store)

	stats, err := idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "bad.sp")

	// The broken file's row carries the parse error
	library, err := store.GetLibrary(ctx, tmpDir)
	require.NoError(t, err)

	file, err := store.GetFile(ctx, library.ID, "bad.sp")
	require.NoError(t, err)
	require.NotNil(t, file.ParseError)
	assert.Contains(t, *file.ParseError, "no terminator")

	// The good file still made it in
	cells, err := store.FindCellsByName(ctx, library.ID, "INV")
	require.NoError(t, err)
	assert.Len(t, cells, 1)
}

// TestIndexLibrary_FixedFileClearsError tests recovery after a bad parse
func TestIndexLibrary_FixedFileClearsError(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "cell.sp", brokenNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	ctx := context.Background()
	idx := New(store)

	stats, err := idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesFailed)

	// Fix the file and re-index
	createTestFile(t, tmpDir, "cell.sp", inverterNetlist)

	stats, err = idx.IndexLibrary(ctx, tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)

	library, err := store.GetLibrary(ctx, tmpDir)
	require.NoError(t, err)

	file, err := store.GetFile(ctx, library.ID, "cell.sp")
	require.NoError(t, err)
	assert.Nil(t, file.ParseError)
}

// TestIndexLibrary_DefaultConfig tests nil config handling
func TestIndexLibrary_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "inv.sp", inverterNetlist)

	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)
	stats, err := idx.IndexLibrary(context.Background(), tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
}

// TestIndexLibrary_ManyFiles tests batch splitting across transactions
func TestIndexLibrary_ManyFiles(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 50; i++ {
		content := strings.Replace(inverterNetlist, "INV", fmt.Sprintf("INV%d", i), 1)
		createTestFile(t, tmpDir, fmt.Sprintf("inv%d.sp", i), content)
	}

	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)
	config := &Config{Workers: 4, BatchSize: 7}

	stats, err := idx.IndexLibrary(context.Background(), tmpDir, config)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.FilesIndexed)
	assert.Equal(t, 50, stats.CellsStored)

	library, err := store.GetLibrary(context.Background(), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 50, library.TotalCells)
}

// TestGetOrCreateLibrary_NewLibrary tests library creation on first index
func TestGetOrCreateLibrary_NewLibrary(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)
	library, err := idx.getOrCreateLibrary(context.Background(), "/some/lib/stdcells")
	require.NoError(t, err)

	assert.Greater(t, library.ID, int64(0))
	assert.Equal(t, "/some/lib/stdcells", library.RootPath)
	assert.Equal(t, "stdcells", library.Name)
	assert.Equal(t, storage.CurrentSchemaVersion, library.IndexVersion)
}

// TestGetOrCreateLibrary_ExistingLibrary tests reuse of an existing library
func TestGetOrCreateLibrary_ExistingLibrary(t *testing.T) {
	store := setupTestStorage(t)
	defer store.Close()

	idx := New(store)

	first, err := idx.getOrCreateLibrary(context.Background(), "/some/lib")
	require.NoError(t, err)

	second, err := idx.getOrCreateLibrary(context.Background(), "/some/lib")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

// TestIndexLock_ConcurrentAcquisition tests the non-blocking lock
func TestIndexLock_ConcurrentAcquisition(t *testing.T) {
	var lock IndexLock

	require.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())

	lock.Release()
	assert.True(t, lock.TryAcquire())
	lock.Release()

	// Exactly one of many concurrent goroutines wins
	var wg sync.WaitGroup
	var winners int32
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if lock.TryAcquire() {
				winners++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
	lock.Release()
}
