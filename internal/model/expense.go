// Package model defines the core data structures for the budget application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk format for expense dates.
const DateLayout = "2006-01-02"

// Expense is a single recorded spend by one of the tracked people.
type Expense struct {
	Date          time.Time       `validate:"required"`
	Amount        decimal.Decimal `validate:"gt=0"`
	Person        string          `validate:"required"`
	Category      string          `validate:"required"`
	Subcategory   string          `validate:"required"`
	Description   string
	PaymentMethod string
	// Hash identifies imported statement lines for duplicate detection.
	// Manually entered expenses leave it empty.
	Hash     string
	ID       int64
	Realized bool
}

// Pair returns the expense's category/subcategory pair.
func (e Expense) Pair() CategoryPair {
	return CategoryPair{Category: e.Category, Subcategory: e.Subcategory}
}

// GenerateHash creates a stable identifier for duplicate detection of
// imported statement lines.
func (e *Expense) GenerateHash(source string) string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		e.Date.Format(DateLayout),
		e.Amount.StringFixed(2),
		e.Description,
		source)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// PersonTotal is an amount attributed to a single person.
type PersonTotal struct {
	Person string
	Amount decimal.Decimal
}

// KeywordMatch is the most common category pair among expenses whose
// description contains a keyword.
type KeywordMatch struct {
	Keyword     string
	Category    string
	Subcategory string
	Count       int
}

// ActualSpend is the summed spending of one person on one subcategory.
type ActualSpend struct {
	Category    string
	Subcategory string
	Person      string
	Total       decimal.Decimal
}
