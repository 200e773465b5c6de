package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"pixel-basket/internal/database/migrations"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a lookup by id, path or name matches no row.
var ErrNotFound = errors.New("not found")

// Querier is satisfied by *sql.DB, *sql.Tx and *Batch.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Database is the catalog store.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if needed) the catalog at dbPath and migrates it to the
// latest schema. The parent directory must exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout covers readers racing the single writer
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := migrations.MigrateUp(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after migration failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return &Database{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Batch is a transaction that records its duration when it ends.
type Batch struct {
	*sql.Tx
	start time.Time
}

// BeginBatch starts a transaction. The caller must call EndBatch.
func (d *Database) BeginBatch(ctx context.Context) (*Batch, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Batch{Tx: tx, start: time.Now()}, nil
}

// EndBatch commits b when err is nil and rolls it back otherwise. It returns
// err, joined with any rollback failure, or the commit error.
func (d *Database) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	if err := b.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InBatch runs fn inside a transaction.
func (d *Database) InBatch(ctx context.Context, fn func(b *Batch) error) error {
	b, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	return d.EndBatch(b, fn(b))
}

// Exec runs a statement and returns the number of affected rows.
func (d *Database) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execOn(ctx, d.db, "exec", query, args...)
}

// Count runs a query whose single column is an integer, typically COUNT(*).
func (d *Database) Count(ctx context.Context, query string, args ...any) (int64, error) {
	return countOn(ctx, d.db, "count", query, args...)
}

// Select runs query on d and maps each row with scan.
func Select[T any](ctx context.Context, d *Database, scan func(RowScanner) (T, error), query string, args ...any) ([]T, error) {
	return selectOn(ctx, d.db, "select", scan, query, args...)
}

func execOn(ctx context.Context, q Querier, op, query string, args ...any) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery(op, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func countOn(ctx context.Context, q Querier, op, query string, args ...any) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery(op, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func selectOn[T any](ctx context.Context, q Querier, op string, scan func(RowScanner) (T, error), query string, args ...any) (out []T, err error) {
	start := time.Now()
	defer func() { recordQuery(op, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// getOne runs a query expected to return at most one row.
func getOne[T any](ctx context.Context, q Querier, op string, scan func(RowScanner) (T, error), query string, args ...any) (v T, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery(op, start, nil)
			return
		}
		recordQuery(op, start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	v, err = scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrNotFound
	}
	return v, err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions logs why a catalog might not be writable.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := dbPath + suffix
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only (mode %v), writes will fail", path, info.Mode())
		if suffix == "" {
			continue
		}
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
