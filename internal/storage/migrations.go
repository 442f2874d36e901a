package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categories and expenses",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(category, subcategory)
				)`,
				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					date TEXT NOT NULL,
					person TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					payment_method TEXT NOT NULL DEFAULT '',
					realized INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_expenses_date ON expenses(date)`,
				`CREATE INDEX idx_expenses_category ON expenses(category, subcategory)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Monthly budget estimates",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS budget_estimates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL,
					estimated_amount REAL NOT NULL DEFAULT 0,
					year INTEGER NOT NULL,
					month INTEGER NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(category, subcategory, year, month)
				)`,
				`CREATE INDEX idx_budget_estimates_period ON budget_estimates(year, month)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Learned description patterns",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS expense_category_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					description_pattern TEXT NOT NULL,
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL,
					usage_count INTEGER NOT NULL DEFAULT 1,
					last_used DATETIME NOT NULL,
					UNIQUE(description_pattern, category, subcategory)
				)`,
				`CREATE INDEX idx_history_pattern ON expense_category_history(description_pattern)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Default budget estimates",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE budget_estimates ADD COLUMN is_default INTEGER NOT NULL DEFAULT 0`,
				`CREATE INDEX idx_budget_estimates_default ON budget_estimates(is_default)`,
			)
		},
	},
	{
		Version:     5,
		Description: "Import hashes for duplicate detection",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE expenses ADD COLUMN hash TEXT`,
				`CREATE UNIQUE INDEX idx_expenses_hash ON expenses(hash) WHERE hash IS NOT NULL`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate brings the schema up to ExpectedSchemaVersion. Each migration runs
// in its own transaction and bumps PRAGMA user_version on success.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, version)
	}

	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to verify schema version: %w", err)
	}
	return version, nil
}
