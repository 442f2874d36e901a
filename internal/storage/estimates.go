package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// SaveEstimate inserts or replaces the estimate for its pair and month.
func (s *SQLiteStorage) SaveEstimate(ctx context.Context, estimate *model.BudgetEstimate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEstimate(estimate); err != nil {
		return err
	}

	return s.withLockRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO budget_estimates (
				category, subcategory, estimated_amount, year, month, is_default, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(category, subcategory, year, month) DO UPDATE SET
				estimated_amount = excluded.estimated_amount,
				is_default = excluded.is_default,
				updated_at = CURRENT_TIMESTAMP
		`,
			estimate.Category,
			estimate.Subcategory,
			estimate.Amount.Round(2),
			estimate.Year,
			int(estimate.Month),
			estimate.IsDefault,
		)
		if err != nil {
			return fmt.Errorf("failed to save estimate: %w", err)
		}
		return nil
	})
}

// GetEstimates returns the estimates stored for one month, ordered by pair.
func (s *SQLiteStorage) GetEstimates(ctx context.Context, year int, month time.Month) ([]model.BudgetEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryEstimates(ctx, `
		SELECT category, subcategory, estimated_amount, year, month, is_default, updated_at
		FROM budget_estimates
		WHERE year = ? AND month = ?
		ORDER BY category, subcategory
	`, year, int(month))
}

// CountEstimates reports how many estimates exist for one month.
func (s *SQLiteStorage) CountEstimates(ctx context.Context, year int, month time.Month) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.withLockRetry(ctx, func() error {
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM budget_estimates WHERE year = ? AND month = ?`,
			year, int(month)).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count estimates: %w", err)
		}
		return nil
	})
	return count, err
}

// GetDefaultEstimates returns one default-flagged estimate per pair. When
// several months flag the same pair, the most recent month wins.
func (s *SQLiteStorage) GetDefaultEstimates(ctx context.Context) ([]model.BudgetEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	flagged, err := s.queryEstimates(ctx, `
		SELECT category, subcategory, estimated_amount, year, month, is_default, updated_at
		FROM budget_estimates
		WHERE is_default = 1
		ORDER BY category, subcategory, year DESC, month DESC
	`)
	if err != nil {
		return nil, err
	}

	defaults := make([]model.BudgetEstimate, 0, len(flagged))
	seen := make(map[model.CategoryPair]struct{}, len(flagged))
	for _, estimate := range flagged {
		if _, ok := seen[estimate.Pair()]; ok {
			continue
		}
		seen[estimate.Pair()] = struct{}{}
		defaults = append(defaults, estimate)
	}
	return defaults, nil
}

func (s *SQLiteStorage) queryEstimates(ctx context.Context, query string, args ...any) ([]model.BudgetEstimate, error) {
	var estimates []model.BudgetEstimate
	err := s.withLockRetry(ctx, func() error {
		estimates = nil

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query estimates: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				estimate  model.BudgetEstimate
				month     int
				updatedAt sql.NullTime
			)
			if err := rows.Scan(
				&estimate.Category, &estimate.Subcategory, &estimate.Amount,
				&estimate.Year, &month, &estimate.IsDefault, &updatedAt,
			); err != nil {
				return fmt.Errorf("failed to scan estimate: %w", err)
			}
			estimate.Month = time.Month(month)
			estimate.Amount = estimate.Amount.Round(2)
			estimate.UpdatedAt = updatedAt.Time
			estimates = append(estimates, estimate)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return estimates, nil
}
