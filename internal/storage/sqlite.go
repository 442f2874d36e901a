package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultRetryDelay is the pause before the single retry of a locked operation.
const DefaultRetryDelay = 100 * time.Millisecond

var _ service.Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	retry  service.RetryOptions
}

// Option customizes a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithRetryDelay sets how long to wait before retrying a locked operation.
func WithRetryDelay(delay time.Duration) Option {
	return func(s *SQLiteStorage) {
		if delay > 0 {
			s.retry.InitialDelay = delay
			s.retry.MaxDelay = delay
		}
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections, and a single one
	// keeps ":memory:" databases alive for the life of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := newStorage(db, opts...)
	s.dbPath = dbPath
	return s, nil
}

func newStorage(db *sql.DB, opts ...Option) *SQLiteStorage {
	s := &SQLiteStorage{
		db: db,
		retry: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: DefaultRetryDelay,
			MaxDelay:     DefaultRetryDelay,
			Multiplier:   1,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the database file the storage was opened on.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// inTx runs fn inside a transaction, retrying the whole transaction once
// if SQLite reports the database as locked.
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withLockRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
