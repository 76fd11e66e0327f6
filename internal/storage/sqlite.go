package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spicelab/netcell/pkg/netlist"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Library operations

// createLibraryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createLibraryWithQuerier(ctx context.Context, q querier, library *Library) error {
	query := `
		INSERT INTO libraries (root_path, name, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		library.RootPath, library.Name, library.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	library.ID = id
	library.CreatedAt = now
	library.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateLibrary(ctx context.Context, library *Library) error {
	return s.createLibraryWithQuerier(ctx, s.querier(), library)
}

const libraryColumns = `id, root_path, name, total_files, total_cells,
	       index_version, last_indexed_at, created_at, updated_at`

func scanLibrary(row *sql.Row) (*Library, error) {
	var library Library
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&library.ID, &library.RootPath, &library.Name,
		&library.TotalFiles, &library.TotalCells, &library.IndexVersion,
		&lastIndexedAt, &library.CreatedAt, &library.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		library.LastIndexedAt = lastIndexedAt.Time
	}
	return &library, nil
}

// getLibraryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getLibraryWithQuerier(ctx context.Context, q querier, rootPath string) (*Library, error) {
	query := `SELECT ` + libraryColumns + ` FROM libraries WHERE root_path = ?`
	return scanLibrary(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetLibrary(ctx context.Context, rootPath string) (*Library, error) {
	return s.getLibraryWithQuerier(ctx, s.querier(), rootPath)
}

// getLibraryByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getLibraryByIDWithQuerier(ctx context.Context, q querier, libraryID int64) (*Library, error) {
	query := `SELECT ` + libraryColumns + ` FROM libraries WHERE id = ?`
	return scanLibrary(q.QueryRowContext(ctx, query, libraryID))
}

func (s *SQLiteStorage) GetLibraryByID(ctx context.Context, libraryID int64) (*Library, error) {
	return s.getLibraryByIDWithQuerier(ctx, s.querier(), libraryID)
}

// updateLibraryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateLibraryWithQuerier(ctx context.Context, q querier, library *Library) error {
	query := `
		UPDATE libraries
		SET name = ?, total_files = ?, total_cells = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		library.Name, library.TotalFiles, library.TotalCells,
		library.LastIndexedAt, now, library.ID)
	if err != nil {
		return fmt.Errorf("failed to update library: %w", err)
	}
	library.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateLibrary(ctx context.Context, library *Library) error {
	return s.updateLibraryWithQuerier(ctx, s.querier(), library)
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (library_id, file_path, content_hash, mod_time, size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(library_id, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.LibraryID, file.FilePath, file.ContentHash[:],
		file.ModTime, file.SizeBytes, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

const fileColumns = `id, library_id, file_path, content_hash, mod_time,
	       size_bytes, parse_error, last_indexed_at, created_at, updated_at`

func scanFileRow(scan func(dest ...interface{}) error) (*File, error) {
	var file File
	var hash []byte
	var parseError sql.NullString
	err := scan(
		&file.ID, &file.LibraryID, &file.FilePath,
		&hash, &file.ModTime, &file.SizeBytes, &parseError,
		&file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	if parseError.Valid {
		file.ParseError = &parseError.String
	}
	return &file, nil
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, libraryID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE library_id = ? AND file_path = ?`
	return scanFileRow(q.QueryRowContext(ctx, query, libraryID, filePath).Scan)
}

func (s *SQLiteStorage) GetFile(ctx context.Context, libraryID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), libraryID, filePath)
}

// getFileByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFileRow(q.QueryRowContext(ctx, query, fileID).Scan)
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, libraryID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE library_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, libraryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFileRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, libraryID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), libraryID)
}

// Cell operations

// storeCellWithQuerier flattens a parsed cell into cells, devices, and
// device_params rows. Position is the cell's order within its file.
func (s *SQLiteStorage) storeCellWithQuerier(ctx context.Context, q querier, fileID int64, position int, cell *netlist.Cell) (int64, error) {
	devices := cell.Instances()

	query := `
		INSERT INTO cells (file_id, name, description, equation, pin_order, device_count, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	var cellID int64
	err := q.QueryRowContext(ctx, query,
		fileID, cell.Name(), cell.Description(), cell.Equation(),
		cell.PinOrder(), len(devices), position, now).Scan(&cellID)
	if err != nil {
		return 0, fmt.Errorf("failed to store cell %s: %w", cell.Name(), err)
	}

	deviceQuery := `
		INSERT INTO devices (cell_id, name, kind, model, terminals, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	paramQuery := `
		INSERT INTO device_params (device_id, key, value, position)
		VALUES (?, ?, ?, ?)
	`
	for i, d := range devices {
		var deviceID int64
		err := q.QueryRowContext(ctx, deviceQuery,
			cellID, d.Name(), string(d.Kind()), d.Model(),
			strings.Join(d.Terminals(), " "), i, now).Scan(&deviceID)
		if err != nil {
			return 0, fmt.Errorf("failed to store device %s: %w", d.Name(), err)
		}
		for j, param := range d.Params() {
			if _, err := q.ExecContext(ctx, paramQuery, deviceID, param.Key, param.Value, j); err != nil {
				return 0, fmt.Errorf("failed to store device param %s: %w", param.Key, err)
			}
		}
	}
	return cellID, nil
}

func (s *SQLiteStorage) StoreCell(ctx context.Context, fileID int64, position int, cell *netlist.Cell) (int64, error) {
	return s.storeCellWithQuerier(ctx, s.querier(), fileID, position, cell)
}

const cellColumns = `c.id, c.file_id, c.name, c.description, c.equation,
	       c.pin_order, c.device_count, c.position, c.created_at, f.file_path`

func scanCellRow(scan func(dest ...interface{}) error) (*CellRecord, error) {
	var cell CellRecord
	err := scan(
		&cell.ID, &cell.FileID, &cell.Name, &cell.Description, &cell.Equation,
		&cell.PinOrder, &cell.DeviceCount, &cell.Position, &cell.CreatedAt,
		&cell.FilePath,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cell, nil
}

// getCellWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getCellWithQuerier(ctx context.Context, q querier, cellID int64) (*CellRecord, error) {
	query := `
		SELECT ` + cellColumns + `
		FROM cells c
		JOIN files f ON c.file_id = f.id
		WHERE c.id = ?
	`
	return scanCellRow(q.QueryRowContext(ctx, query, cellID).Scan)
}

func (s *SQLiteStorage) GetCell(ctx context.Context, cellID int64) (*CellRecord, error) {
	return s.getCellWithQuerier(ctx, s.querier(), cellID)
}

// loadCellWithQuerier reconstructs a live netlist.Cell from stored rows,
// devices and params in stored order.
func (s *SQLiteStorage) loadCellWithQuerier(ctx context.Context, q querier, cellID int64) (*netlist.Cell, error) {
	record, err := s.getCellWithQuerier(ctx, q, cellID)
	if err != nil {
		return nil, err
	}

	params, err := s.loadDeviceParams(ctx, q, cellID)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, kind, model, terminals FROM devices WHERE cell_id = ? ORDER BY position`, cellID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var devices []netlist.Device
	for rows.Next() {
		var id int64
		var name, kind, model, terminals string
		if err := rows.Scan(&id, &name, &kind, &model, &terminals); err != nil {
			return nil, err
		}
		device, err := rebuildDevice(name, kind, model, terminals, params[id])
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", cellID, err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return netlist.NewCell(record.Name, record.Description, record.Equation,
		strings.Fields(record.PinOrder), devices), nil
}

// loadDeviceParams fetches the extra attributes for every device in a
// cell, keyed by device ID, in stored order.
func (s *SQLiteStorage) loadDeviceParams(ctx context.Context, q querier, cellID int64) (map[int64][]netlist.Param, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT dp.device_id, dp.key, dp.value
		FROM device_params dp
		JOIN devices d ON dp.device_id = d.id
		WHERE d.cell_id = ?
		ORDER BY dp.device_id, dp.position
	`, cellID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	params := make(map[int64][]netlist.Param)
	for rows.Next() {
		var deviceID int64
		var param netlist.Param
		if err := rows.Scan(&deviceID, &param.Key, &param.Value); err != nil {
			return nil, err
		}
		params[deviceID] = append(params[deviceID], param)
	}
	return params, rows.Err()
}

// rebuildDevice reverses the flattening done by StoreCell. The stored
// terminal list must match the variant's positional count.
func rebuildDevice(name, kind, model, terminals string, params []netlist.Param) (netlist.Device, error) {
	terms := strings.Fields(terminals)
	switch netlist.DeviceKind(kind) {
	case netlist.KindTransistor:
		if len(terms) != 4 {
			return nil, fmt.Errorf("transistor %s has %d stored terminals, want 4", name, len(terms))
		}
		return netlist.NewTransistor(name, terms[0], terms[1], terms[2], terms[3], model, params...), nil
	case netlist.KindDiode:
		if len(terms) != 2 {
			return nil, fmt.Errorf("diode %s has %d stored terminals, want 2", name, len(terms))
		}
		return netlist.NewDiode(name, terms[0], terms[1], model, params...), nil
	default:
		return nil, fmt.Errorf("unknown device kind %q for %s", kind, name)
	}
}

func (s *SQLiteStorage) LoadCell(ctx context.Context, cellID int64) (*netlist.Cell, error) {
	return s.loadCellWithQuerier(ctx, s.querier(), cellID)
}

func collectCellRows(rows *sql.Rows) ([]*CellRecord, error) {
	defer func() { _ = rows.Close() }()

	cells := make([]*CellRecord, 0)
	for rows.Next() {
		cell, err := scanCellRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// listCellsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listCellsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*CellRecord, error) {
	query := `
		SELECT ` + cellColumns + `
		FROM cells c
		JOIN files f ON c.file_id = f.id
		WHERE c.file_id = ?
		ORDER BY c.position
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	return collectCellRows(rows)
}

func (s *SQLiteStorage) ListCellsByFile(ctx context.Context, fileID int64) ([]*CellRecord, error) {
	return s.listCellsByFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteCellsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteCellsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM cells WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteCellsByFile(ctx context.Context, fileID int64) error {
	return s.deleteCellsByFileWithQuerier(ctx, s.querier(), fileID)
}

// listCellsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listCellsWithQuerier(ctx context.Context, q querier, libraryID int64, limit int) ([]*CellRecord, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	query := `
		SELECT ` + cellColumns + `
		FROM cells c
		JOIN files f ON c.file_id = f.id
		WHERE f.library_id = ?
		ORDER BY f.file_path, c.position
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, libraryID, limit)
	if err != nil {
		return nil, err
	}
	return collectCellRows(rows)
}

func (s *SQLiteStorage) ListCells(ctx context.Context, libraryID int64, limit int) ([]*CellRecord, error) {
	return s.listCellsWithQuerier(ctx, s.querier(), libraryID, limit)
}

// findCellsByNameWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) findCellsByNameWithQuerier(ctx context.Context, q querier, libraryID int64, name string) ([]*CellRecord, error) {
	query := `
		SELECT ` + cellColumns + `
		FROM cells c
		JOIN files f ON c.file_id = f.id
		WHERE f.library_id = ? AND c.name = ?
		ORDER BY f.file_path, c.position
	`
	rows, err := q.QueryContext(ctx, query, libraryID, name)
	if err != nil {
		return nil, err
	}
	return collectCellRows(rows)
}

func (s *SQLiteStorage) FindCellsByName(ctx context.Context, libraryID int64, name string) ([]*CellRecord, error) {
	return s.findCellsByNameWithQuerier(ctx, s.querier(), libraryID, name)
}

// searchCellsWithQuerier runs a BM25-ranked FTS5 query over cell names,
// descriptions, and equations.
func (s *SQLiteStorage) searchCellsWithQuerier(ctx context.Context, q querier, libraryID int64, query string, limit int) ([]CellMatch, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = -1
	}

	// Note: in FTS5, bm25() returns negative scores where lower is a
	// better match, so the raw score both orders the results and feeds
	// normalization.
	sqlQuery := `
		SELECT c.id, c.name, f.file_path, c.description, c.equation,
		       c.pin_order, c.device_count, bm25(cells_fts) AS score
		FROM cells_fts
		JOIN cells c ON cells_fts.rowid = c.id
		JOIN files f ON c.file_id = f.id
		WHERE cells_fts MATCH ? AND f.library_id = ?
		ORDER BY score
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, sanitized, libraryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]CellMatch, 0)
	for rows.Next() {
		var match CellMatch
		if err := rows.Scan(
			&match.CellID, &match.Name, &match.FilePath, &match.Description,
			&match.Equation, &match.PinOrder, &match.DeviceCount, &match.Score,
		); err != nil {
			return nil, err
		}
		match.Score = normalizeBM25(match.Score)
		results = append(results, match)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) SearchCells(ctx context.Context, libraryID int64, query string, limit int) ([]CellMatch, error) {
	return s.searchCellsWithQuerier(ctx, s.querier(), libraryID, query, limit)
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error) {
	library, err := s.getLibraryByIDWithQuerier(ctx, s.querier(), libraryID)
	if err != nil {
		return nil, err
	}

	status := &LibraryStatus{
		Library:       library,
		LastIndexedAt: library.LastIndexedAt,
	}

	// Count files
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM files WHERE library_id = ?", libraryID).Scan(&status.FilesCount)
	if err != nil {
		return nil, err
	}

	// Count files whose last index attempt failed to parse
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM files WHERE library_id = ? AND parse_error IS NOT NULL", libraryID).Scan(&status.FailedFiles)
	if err != nil {
		return nil, err
	}

	// Count cells
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cells c
		JOIN files f ON c.file_id = f.id
		WHERE f.library_id = ?
	`, libraryID).Scan(&status.CellsCount)
	if err != nil {
		return nil, err
	}

	// Count devices
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM devices d
		JOIN cells c ON d.cell_id = c.id
		JOIN files f ON c.file_id = f.id
		WHERE f.library_id = ?
	`, libraryID).Scan(&status.DevicesCount)
	if err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexBuilt:      true, // FTS indexes are created with migrations
		AllFilesParsed:     status.FailedFiles == 0,
	}

	return status, nil
}

// Transaction implementations

func (t *sqliteTx) CreateLibrary(ctx context.Context, library *Library) error {
	return t.storage.createLibraryWithQuerier(ctx, t.querier(), library)
}

func (t *sqliteTx) GetLibrary(ctx context.Context, rootPath string) (*Library, error) {
	return t.storage.getLibraryWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetLibraryByID(ctx context.Context, libraryID int64) (*Library, error) {
	return t.storage.getLibraryByIDWithQuerier(ctx, t.querier(), libraryID)
}

func (t *sqliteTx) UpdateLibrary(ctx context.Context, library *Library) error {
	return t.storage.updateLibraryWithQuerier(ctx, t.querier(), library)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, libraryID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), libraryID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, libraryID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), libraryID)
}

func (t *sqliteTx) StoreCell(ctx context.Context, fileID int64, position int, cell *netlist.Cell) (int64, error) {
	return t.storage.storeCellWithQuerier(ctx, t.querier(), fileID, position, cell)
}

func (t *sqliteTx) GetCell(ctx context.Context, cellID int64) (*CellRecord, error) {
	return t.storage.getCellWithQuerier(ctx, t.querier(), cellID)
}

func (t *sqliteTx) LoadCell(ctx context.Context, cellID int64) (*netlist.Cell, error) {
	return t.storage.loadCellWithQuerier(ctx, t.querier(), cellID)
}

func (t *sqliteTx) ListCellsByFile(ctx context.Context, fileID int64) ([]*CellRecord, error) {
	return t.storage.listCellsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteCellsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteCellsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListCells(ctx context.Context, libraryID int64, limit int) ([]*CellRecord, error) {
	return t.storage.listCellsWithQuerier(ctx, t.querier(), libraryID, limit)
}

func (t *sqliteTx) FindCellsByName(ctx context.Context, libraryID int64, name string) ([]*CellRecord, error) {
	return t.storage.findCellsByNameWithQuerier(ctx, t.querier(), libraryID, name)
}

func (t *sqliteTx) SearchCells(ctx context.Context, libraryID int64, query string, limit int) ([]CellMatch, error) {
	return t.storage.searchCellsWithQuerier(ctx, t.querier(), libraryID, query, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error) {
	return t.storage.GetStatus(ctx, libraryID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	// We return an error to prevent accidental misuse
	// If savepoints are needed in the future, implement here
	return nil, errors.New("nested transactions not supported")
}
