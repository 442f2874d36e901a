package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Totals are the money columns shared by rows, categories and the report.
type Totals struct {
	// Actuals holds each person's spend. People with no spend are absent.
	Actuals     map[string]decimal.Decimal
	Estimate    decimal.Decimal
	TotalActual decimal.Decimal
	// Variance is Estimate - TotalActual; negative means over budget.
	Variance decimal.Decimal
}

func newTotals() Totals {
	return Totals{Actuals: make(map[string]decimal.Decimal)}
}

// Actual returns one person's spend, zero if they spent nothing.
func (t Totals) Actual(person string) decimal.Decimal {
	return t.Actuals[person]
}

// OverBudget reports whether actual spending exceeded the estimate.
func (t Totals) OverBudget() bool {
	return t.Variance.IsNegative()
}

func (t *Totals) add(other Totals) {
	t.Estimate = t.Estimate.Add(other.Estimate)
	t.TotalActual = t.TotalActual.Add(other.TotalActual)
	t.Variance = t.Variance.Add(other.Variance)
	for person, amount := range other.Actuals {
		t.Actuals[person] = t.Actuals[person].Add(amount)
	}
}

// Row is one subcategory of the report.
type Row struct {
	Totals
	Category    string
	Subcategory string
	// Orphaned marks a pair that has spending or an estimate this month but
	// is no longer in the taxonomy.
	Orphaned bool
}

// Pair returns the row's category pair.
func (r Row) Pair() model.CategoryPair {
	return model.CategoryPair{Category: r.Category, Subcategory: r.Subcategory}
}

// CategoryTotal groups a category's rows with their summed totals.
type CategoryTotal struct {
	Totals
	Category string
	Rows     []Row
}

// Report is the budget-versus-actual breakdown for one month.
type Report struct {
	Total      Totals
	People     []string
	Categories []CategoryTotal
	Year       int
	Month      time.Month
}

// Rows returns every subcategory row in report order.
func (r *Report) Rows() []Row {
	var rows []Row
	for _, c := range r.Categories {
		rows = append(rows, c.Rows...)
	}
	return rows
}

// Category returns the totals for one category.
func (r *Report) Category(name string) (CategoryTotal, bool) {
	for _, c := range r.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryTotal{}, false
}

// Share is a category's percentage of the month's total spending, or 0 when
// nothing was spent.
func (r *Report) Share(category string) float64 {
	if r.Total.TotalActual.IsZero() {
		return 0
	}
	c, ok := r.Category(category)
	if !ok {
		return 0
	}
	return c.TotalActual.Div(r.Total.TotalActual).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// OverBudget lists the rows whose spending exceeded their estimate.
func (r *Report) OverBudget() []Row {
	var rows []Row
	for _, row := range r.Rows() {
		if row.OverBudget() {
			rows = append(rows, row)
		}
	}
	return rows
}

// Period returns the report's month as a time at its first day.
func (r *Report) Period() time.Time {
	start, _ := MonthRange(r.Year, r.Month)
	return start
}
