package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetEstimate is the planned spend for a subcategory in a given month.
// IsDefault marks the estimate as a template for seeding empty months.
type BudgetEstimate struct {
	UpdatedAt   time.Time
	Amount      decimal.Decimal `validate:"gte=0"`
	Category    string          `validate:"required"`
	Subcategory string          `validate:"required"`
	Year        int             `validate:"gte=1900,lte=9999"`
	Month       time.Month      `validate:"gte=1,lte=12"`
	IsDefault   bool
}

// Pair returns the estimate's category/subcategory pair.
func (e BudgetEstimate) Pair() CategoryPair {
	return CategoryPair{Category: e.Category, Subcategory: e.Subcategory}
}
