package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// AddExpense validates and stores a single expense. The expense's pair must
// exist in the taxonomy. On success expense.ID is set.
func (s *SQLiteStorage) AddExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		id, _, err := insertExpense(ctx, tx, expense)
		if err != nil {
			return err
		}
		expense.ID = id
		return nil
	})
}

// AddExpenses stores a batch of expenses in one transaction. Expenses whose
// import hash is already stored are skipped; the number inserted is returned.
// Any invalid expense aborts the whole batch.
func (s *SQLiteStorage) AddExpenses(ctx context.Context, expenses []model.Expense) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(expenses) == 0 {
		return 0, nil
	}
	for i := range expenses {
		if err := validateExpense(&expenses[i]); err != nil {
			return 0, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}

	var inserted int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		inserted = 0
		for i := range expenses {
			id, added, err := insertExpense(ctx, tx, &expenses[i])
			if err != nil {
				return fmt.Errorf("expense %d: %w", i+1, err)
			}
			if added {
				expenses[i].ID = id
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertExpense(ctx context.Context, q queryable, expense *model.Expense) (int64, bool, error) {
	known, err := pairExists(ctx, q, expense.Category, expense.Subcategory)
	if err != nil {
		return 0, false, err
	}
	if !known {
		return 0, false, fmt.Errorf("%w: %s", common.ErrInvalidCategory, expense.Pair())
	}

	var hash sql.NullString
	if expense.Hash != "" {
		hash = sql.NullString{String: expense.Hash, Valid: true}
	}

	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO expenses (
			date, person, amount, category, subcategory,
			description, payment_method, realized, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		expense.Date.Format(model.DateLayout),
		expense.Person,
		expense.Amount.Round(2),
		expense.Category,
		expense.Subcategory,
		expense.Description,
		expense.PaymentMethod,
		expense.Realized,
		hash,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to check insert result: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get expense id: %w", err)
	}
	return id, true, nil
}

// GetExpenses returns expenses dated within [start, end], oldest first.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, start, end time.Time) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	var expenses []model.Expense
	err := s.withLockRetry(ctx, func() error {
		expenses = nil

		rows, err := s.db.QueryContext(ctx, `
			SELECT id, date, person, amount, category, subcategory,
			       description, payment_method, realized, hash
			FROM expenses
			WHERE date >= ? AND date <= ?
			ORDER BY date, id
		`, start.Format(model.DateLayout), end.Format(model.DateLayout))
		if err != nil {
			return fmt.Errorf("failed to query expenses: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				expense model.Expense
				date    string
				hash    sql.NullString
			)
			if err := rows.Scan(
				&expense.ID, &date, &expense.Person, &expense.Amount,
				&expense.Category, &expense.Subcategory, &expense.Description,
				&expense.PaymentMethod, &expense.Realized, &hash,
			); err != nil {
				return fmt.Errorf("failed to scan expense: %w", err)
			}

			expense.Date, err = time.Parse(model.DateLayout, date)
			if err != nil {
				return fmt.Errorf("expense %d has malformed date %q: %w", expense.ID, date, err)
			}
			expense.Amount = expense.Amount.Round(2)
			expense.Hash = hash.String
			expenses = append(expenses, expense)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// GetActualSpend sums expenses dated within [start, end] per category,
// subcategory and person. Totals are rounded to cents.
func (s *SQLiteStorage) GetActualSpend(ctx context.Context, start, end time.Time) ([]model.ActualSpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	var spend []model.ActualSpend
	err := s.withLockRetry(ctx, func() error {
		spend = nil

		rows, err := s.db.QueryContext(ctx, `
			SELECT category, subcategory, person, COALESCE(SUM(amount), 0)
			FROM expenses
			WHERE date >= ? AND date <= ?
			GROUP BY category, subcategory, person
			ORDER BY category, subcategory, person
		`, start.Format(model.DateLayout), end.Format(model.DateLayout))
		if err != nil {
			return fmt.Errorf("failed to query actual spend: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var row model.ActualSpend
			if err := rows.Scan(&row.Category, &row.Subcategory, &row.Person, &row.Total); err != nil {
				return fmt.Errorf("failed to scan actual spend: %w", err)
			}
			row.Total = row.Total.Round(2)
			spend = append(spend, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return spend, nil
}

// GetUnrealizedByPerson sums expenses within [start, end] that have not
// been realized yet, per person.
func (s *SQLiteStorage) GetUnrealizedByPerson(ctx context.Context, start, end time.Time) ([]model.PersonTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	var totals []model.PersonTotal
	err := s.withLockRetry(ctx, func() error {
		totals = nil

		rows, err := s.db.QueryContext(ctx, `
			SELECT person, COALESCE(SUM(amount), 0)
			FROM expenses
			WHERE realized = 0 AND date >= ? AND date <= ?
			GROUP BY person
			ORDER BY person
		`, start.Format(model.DateLayout), end.Format(model.DateLayout))
		if err != nil {
			return fmt.Errorf("failed to query unrealized expenses: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var total model.PersonTotal
			if err := rows.Scan(&total.Person, &total.Amount); err != nil {
				return fmt.Errorf("failed to scan unrealized total: %w", err)
			}
			total.Amount = total.Amount.Round(2)
			totals = append(totals, total)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// FindTopCategoryForKeyword returns the pair most often used by expenses whose
// description contains keyword, case-insensitively. Ties go to the
// alphabetically first pair. It returns nil when nothing matches.
func (s *SQLiteStorage) FindTopCategoryForKeyword(ctx context.Context, keyword string) (*model.KeywordMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}

	var match *model.KeywordMatch
	err := s.withLockRetry(ctx, func() error {
		match = nil

		var m model.KeywordMatch
		err := s.db.QueryRowContext(ctx, `
			SELECT category, subcategory, COUNT(*) AS uses
			FROM expenses
			WHERE LOWER(description) LIKE ? ESCAPE '\'
			GROUP BY category, subcategory
			ORDER BY uses DESC, category, subcategory
			LIMIT 1
		`, "%"+escapeLike(keyword)+"%").Scan(&m.Category, &m.Subcategory, &m.Count)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to search expenses for %q: %w", keyword, err)
		}

		m.Keyword = keyword
		match = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// MarkRealized sets the realized flag on an expense.
func (s *SQLiteStorage) MarkRealized(ctx context.Context, id int64, realized bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withLockRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx,
			`UPDATE expenses SET realized = ? WHERE id = ?`, realized, id)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("expense %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

// ExpenseHashExists reports whether an imported expense with this hash is stored.
func (s *SQLiteStorage) ExpenseHashExists(ctx context.Context, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}

	var exists bool
	err := s.withLockRetry(ctx, func() error {
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM expenses WHERE hash = ?)`, hash).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check expense hash: %w", err)
		}
		return nil
	})
	return exists, err
}

func validateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidDateRange, end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

