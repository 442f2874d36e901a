// Package testutil provides shared helpers for tests that need a real,
// migrated database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Taxonomy model.Taxonomy
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Taxonomy       model.Taxonomy
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database seeded with taxonomy.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
func SetupTestDB(t *testing.T, taxonomy model.Taxonomy) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Taxonomy: taxonomy})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:", storage.WithRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, pair := range opts.Taxonomy.Pairs() {
			if _, err := store.InsertCategoryPair(ctx, pair.Category, pair.Subcategory); err != nil {
				t.Fatalf("failed to seed %s: %v", pair, err)
			}
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage:  store,
		Taxonomy: opts.Taxonomy,
		t:        t,
	}
}

// Date parses a YYYY-MM-DD date or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// MustAddExpense stores an expense or fails the test.
func (db *TestDB) MustAddExpense(date, person, amount, category, subcategory, description string) model.Expense {
	db.t.Helper()

	expense := model.Expense{
		Date:        Date(db.t, date),
		Person:      person,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Subcategory: subcategory,
		Description: description,
	}
	if err := db.Storage.AddExpense(context.Background(), &expense); err != nil {
		db.t.Fatalf("failed to add expense %q: %v", description, err)
	}
	return expense
}

// MustSaveEstimate stores an estimate or fails the test.
func (db *TestDB) MustSaveEstimate(category, subcategory string, year int, month time.Month, amount string, isDefault bool) {
	db.t.Helper()

	estimate := model.BudgetEstimate{
		Category:    category,
		Subcategory: subcategory,
		Year:        year,
		Month:       month,
		Amount:      decimal.RequireFromString(amount),
		IsDefault:   isDefault,
	}
	if err := db.Storage.SaveEstimate(context.Background(), &estimate); err != nil {
		db.t.Fatalf("failed to save estimate %s/%s: %v", category, subcategory, err)
	}
}
