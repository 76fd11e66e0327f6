package storage

import (
	"context"
	"time"

	"github.com/spicelab/netcell/pkg/netlist"
)

// Storage defines the interface for persisting and querying indexed
// netlist data
type Storage interface {
	// Library operations
	CreateLibrary(ctx context.Context, library *Library) error
	GetLibrary(ctx context.Context, rootPath string) (*Library, error)
	GetLibraryByID(ctx context.Context, libraryID int64) (*Library, error)
	UpdateLibrary(ctx context.Context, library *Library) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, libraryID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, libraryID int64) ([]*File, error)

	// Cell operations
	StoreCell(ctx context.Context, fileID int64, position int, cell *netlist.Cell) (int64, error)
	GetCell(ctx context.Context, cellID int64) (*CellRecord, error)
	LoadCell(ctx context.Context, cellID int64) (*netlist.Cell, error)
	ListCellsByFile(ctx context.Context, fileID int64) ([]*CellRecord, error)
	DeleteCellsByFile(ctx context.Context, fileID int64) error
	ListCells(ctx context.Context, libraryID int64, limit int) ([]*CellRecord, error)
	FindCellsByName(ctx context.Context, libraryID int64, name string) ([]*CellRecord, error)
	SearchCells(ctx context.Context, libraryID int64, query string, limit int) ([]CellMatch, error)

	// Status operations
	GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Library represents an indexed directory tree of netlist files
type Library struct {
	ID            int64
	RootPath      string
	Name          string
	TotalFiles    int
	TotalCells    int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked netlist source file
type File struct {
	ID            int64
	LibraryID     int64
	FilePath      string // Relative to library root
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	ParseError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CellRecord is the stored form of a parsed subcircuit cell. FilePath
// is populated on queries that join the files table.
type CellRecord struct {
	ID          int64
	FileID      int64
	Name        string
	Description string
	Equation    string
	PinOrder    string // Pin names joined by single spaces
	DeviceCount int
	Position    int // Order within the source file
	FilePath    string
	CreatedAt   time.Time
}

// CellMatch represents a result from full-text cell search
type CellMatch struct {
	CellID      int64
	Name        string
	FilePath    string
	Description string
	Equation    string
	PinOrder    string
	DeviceCount int
	Score       float64 // Normalized BM25 relevance, higher is better
}

// LibraryStatus contains statistics about an indexed library
type LibraryStatus struct {
	Library       *Library
	FilesCount    int
	FailedFiles   int // Files whose last index attempt hit a parse error
	CellsCount    int
	DevicesCount  int
	IndexSizeMB   float64
	LastIndexedAt time.Time
	Health        HealthStatus
}

// HealthStatus represents the health of the catalog
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexBuilt      bool
	AllFilesParsed     bool
}
