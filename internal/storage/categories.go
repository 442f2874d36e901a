package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// GetTaxonomy loads every stored category/subcategory pair.
func (s *SQLiteStorage) GetTaxonomy(ctx context.Context) (model.Taxonomy, error) {
	if err := validateContext(ctx); err != nil {
		return model.Taxonomy{}, err
	}

	var taxonomy model.Taxonomy
	err := s.withLockRetry(ctx, func() error {
		taxonomy = model.Taxonomy{}

		rows, err := s.db.QueryContext(ctx, `
			SELECT category, subcategory
			FROM categories
			ORDER BY category, subcategory
		`)
		if err != nil {
			return fmt.Errorf("failed to query categories: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var category, subcategory string
			if err := rows.Scan(&category, &subcategory); err != nil {
				return fmt.Errorf("failed to scan category: %w", err)
			}
			if err := taxonomy.Add(category, subcategory); err != nil {
				return fmt.Errorf("stored category %q/%q: %w", category, subcategory, err)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return model.Taxonomy{}, err
	}

	return taxonomy, nil
}

// InsertCategoryPair stores a pair if it is not already present and reports
// whether a row was added.
func (s *SQLiteStorage) InsertCategoryPair(ctx context.Context, category, subcategory string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if err := validateString(category, "category"); err != nil {
		return false, err
	}
	if err := validateString(subcategory, "subcategory"); err != nil {
		return false, err
	}

	var inserted bool
	err := s.withLockRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO categories (category, subcategory)
			VALUES (?, ?)
		`, category, subcategory)
		if err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check insert result: %w", err)
		}
		inserted = affected > 0
		return nil
	})
	return inserted, err
}

// RenameCategory renames a category everywhere it is referenced: the
// taxonomy, expenses, estimates and learned patterns.
func (s *SQLiteStorage) RenameCategory(ctx context.Context, oldName, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if err := validateString(oldName, "oldName"); err != nil {
		return err
	}
	if err := validateString(newName, "newName"); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := categoryExists(ctx, tx, oldName)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("category %q: %w", oldName, common.ErrNotFound)
		}

		taken, err := categoryExists(ctx, tx, newName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("category %q: %w", newName, common.ErrDuplicateEntry)
		}

		return execAllContext(ctx, tx, []string{
			`UPDATE categories SET category = ? WHERE category = ?`,
			`UPDATE expenses SET category = ? WHERE category = ?`,
			`UPDATE budget_estimates SET category = ? WHERE category = ?`,
			`UPDATE OR IGNORE expense_category_history SET category = ? WHERE category = ?`,
		}, newName, oldName)
	})
}

// RenameSubcategory renames a subcategory within one category everywhere it
// is referenced.
func (s *SQLiteStorage) RenameSubcategory(ctx context.Context, category, oldName, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if err := validateString(oldName, "oldName"); err != nil {
		return err
	}
	if err := validateString(newName, "newName"); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := pairExists(ctx, tx, category, oldName)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("subcategory %q/%q: %w", category, oldName, common.ErrNotFound)
		}

		taken, err := pairExists(ctx, tx, category, newName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("subcategory %q/%q: %w", category, newName, common.ErrDuplicateEntry)
		}

		return execAllContext(ctx, tx, []string{
			`UPDATE categories SET subcategory = ? WHERE category = ? AND subcategory = ?`,
			`UPDATE expenses SET subcategory = ? WHERE category = ? AND subcategory = ?`,
			`UPDATE budget_estimates SET subcategory = ? WHERE category = ? AND subcategory = ?`,
			`UPDATE OR IGNORE expense_category_history SET subcategory = ? WHERE category = ? AND subcategory = ?`,
		}, newName, category, oldName)
	})
}

// DeleteCategory removes a category and all of its subcategories from the
// taxonomy. Callers are expected to check usage first.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	if err := validateString(category, "category"); err != nil {
		return err
	}

	return s.deleteCategoryRows(ctx, `DELETE FROM categories WHERE category = ?`, category)
}

// DeleteSubcategory removes a single pair from the taxonomy.
func (s *SQLiteStorage) DeleteSubcategory(ctx context.Context, category, subcategory string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if err := validateString(subcategory, "subcategory"); err != nil {
		return err
	}

	return s.deleteCategoryRows(ctx,
		`DELETE FROM categories WHERE category = ? AND subcategory = ?`,
		category, subcategory)
}

func (s *SQLiteStorage) deleteCategoryRows(ctx context.Context, query string, args ...any) error {
	return s.withLockRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if affected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

// CountCategoryUsage counts expenses and estimates that reference a category.
func (s *SQLiteStorage) CountCategoryUsage(ctx context.Context, category string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	category = strings.TrimSpace(category)

	return s.countUsage(ctx, `
		SELECT
			(SELECT COUNT(*) FROM expenses WHERE category = ?) +
			(SELECT COUNT(*) FROM budget_estimates WHERE category = ?)
	`, category, category)
}

// CountSubcategoryUsage counts expenses and estimates that reference a pair.
func (s *SQLiteStorage) CountSubcategoryUsage(ctx context.Context, category, subcategory string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)

	return s.countUsage(ctx, `
		SELECT
			(SELECT COUNT(*) FROM expenses WHERE category = ? AND subcategory = ?) +
			(SELECT COUNT(*) FROM budget_estimates WHERE category = ? AND subcategory = ?)
	`, category, subcategory, category, subcategory)
}

func (s *SQLiteStorage) countUsage(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	err := s.withLockRetry(ctx, func() error {
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return fmt.Errorf("failed to count category usage: %w", err)
		}
		return nil
	})
	return count, err
}

func categoryExists(ctx context.Context, q queryable, category string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE category = ?)`, category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

func pairExists(ctx context.Context, q queryable, category, subcategory string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE category = ? AND subcategory = ?)`,
		category, subcategory).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subcategory: %w", err)
	}
	return exists, nil
}

func execAllContext(ctx context.Context, q queryable, queries []string, args ...any) error {
	for _, query := range queries {
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
