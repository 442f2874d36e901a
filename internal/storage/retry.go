package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
)

// withLockRetry runs op, retrying it once after the configured delay when
// SQLite reports contention. Any other failure is returned unchanged.
func (s *SQLiteStorage) withLockRetry(ctx context.Context, op func() error) error {
	err := common.WithRetry(ctx, func() error {
		opErr := op()
		if opErr != nil && isLockError(opErr) {
			return &common.RetryableError{Err: opErr, Retryable: true}
		}
		return opErr
	}, s.retry)

	if errors.Is(err, common.ErrMaxRetries) {
		return fmt.Errorf("%w: %w", common.ErrDatabaseLocked, err)
	}
	return err
}

// isLockError reports whether err is SQLite's busy/locked condition.
func isLockError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
