package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// RecordPattern notes that a normalized description was filed under a pair.
// A new triple starts at usage count 1; a repeat bumps the count and
// refreshes last_used.
func (s *SQLiteStorage) RecordPattern(ctx context.Context, description, category, subcategory string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(description, "description"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if err := validateString(subcategory, "subcategory"); err != nil {
		return err
	}

	return s.withLockRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO expense_category_history (
				description_pattern, category, subcategory, usage_count, last_used
			) VALUES (?, ?, ?, 1, ?)
			ON CONFLICT(description_pattern, category, subcategory) DO UPDATE SET
				usage_count = usage_count + 1,
				last_used = excluded.last_used
		`, description, strings.TrimSpace(category), strings.TrimSpace(subcategory), at.UTC())
		if err != nil {
			return fmt.Errorf("failed to record pattern: %w", err)
		}
		return nil
	})
}

// GetPatternsByDescription returns the patterns stored for an exact
// description, most used first and most recent among equals.
func (s *SQLiteStorage) GetPatternsByDescription(ctx context.Context, description string) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryPatterns(ctx, `
		SELECT id, description_pattern, category, subcategory, usage_count, last_used
		FROM expense_category_history
		WHERE description_pattern = ?
		ORDER BY usage_count DESC, last_used DESC, id
	`, description)
}

// GetLearnedPatterns returns every stored pattern in the same priority order
// used for exact lookups.
func (s *SQLiteStorage) GetLearnedPatterns(ctx context.Context) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryPatterns(ctx, `
		SELECT id, description_pattern, category, subcategory, usage_count, last_used
		FROM expense_category_history
		ORDER BY usage_count DESC, last_used DESC, id
	`)
}

func (s *SQLiteStorage) queryPatterns(ctx context.Context, query string, args ...any) ([]model.LearnedPattern, error) {
	var patterns []model.LearnedPattern
	err := s.withLockRetry(ctx, func() error {
		patterns = nil

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query patterns: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var p model.LearnedPattern
			if err := rows.Scan(&p.ID, &p.Description, &p.Category, &p.Subcategory, &p.UsageCount, &p.LastUsed); err != nil {
				return fmt.Errorf("failed to scan pattern: %w", err)
			}
			patterns = append(patterns, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}
