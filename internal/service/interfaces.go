// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// CategoryStore persists the category taxonomy.
type CategoryStore interface {
	GetTaxonomy(ctx context.Context) (model.Taxonomy, error)
	InsertCategoryPair(ctx context.Context, category, subcategory string) (bool, error)
	RenameCategory(ctx context.Context, oldName, newName string) error
	RenameSubcategory(ctx context.Context, category, oldName, newName string) error
	DeleteCategory(ctx context.Context, category string) error
	DeleteSubcategory(ctx context.Context, category, subcategory string) error
	CountCategoryUsage(ctx context.Context, category string) (int, error)
	CountSubcategoryUsage(ctx context.Context, category, subcategory string) (int, error)
}

// ExpenseStore persists expense records.
type ExpenseStore interface {
	AddExpense(ctx context.Context, expense *model.Expense) error
	AddExpenses(ctx context.Context, expenses []model.Expense) (int, error)
	GetExpenses(ctx context.Context, start, end time.Time) ([]model.Expense, error)
	GetActualSpend(ctx context.Context, start, end time.Time) ([]model.ActualSpend, error)
	GetUnrealizedByPerson(ctx context.Context, start, end time.Time) ([]model.PersonTotal, error)
	FindTopCategoryForKeyword(ctx context.Context, keyword string) (*model.KeywordMatch, error)
	MarkRealized(ctx context.Context, id int64, realized bool) error
	ExpenseHashExists(ctx context.Context, hash string) (bool, error)
}

// EstimateStore persists monthly budget estimates.
type EstimateStore interface {
	SaveEstimate(ctx context.Context, estimate *model.BudgetEstimate) error
	GetEstimates(ctx context.Context, year int, month time.Month) ([]model.BudgetEstimate, error)
	CountEstimates(ctx context.Context, year int, month time.Month) (int, error)
	GetDefaultEstimates(ctx context.Context) ([]model.BudgetEstimate, error)
}

// PatternStore persists learned description → category mappings.
type PatternStore interface {
	RecordPattern(ctx context.Context, description, category, subcategory string, at time.Time) error
	GetPatternsByDescription(ctx context.Context, description string) ([]model.LearnedPattern, error)
	GetLearnedPatterns(ctx context.Context) ([]model.LearnedPattern, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CategoryStore
	ExpenseStore
	EstimateStore
	PatternStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
