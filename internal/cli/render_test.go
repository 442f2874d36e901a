package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/ofx"
	"github.com/Veraticus/the-budget-must-balance/internal/pattern"
	"github.com/Veraticus/the-budget-must-balance/internal/testutil"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{amount: "0", expected: "$0.00"},
		{amount: "25.5", expected: "$25.50"},
		{amount: "1234.56", expected: "$1,234.56"},
		{amount: "-1200", expected: "-$1,200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatMoney(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormatVariance(t *testing.T) {
	assert.Contains(t, FormatVariance(decimal.RequireFromString("-12.5")), "-$12.50")
	assert.Contains(t, FormatVariance(decimal.RequireFromString("40")), "$40.00")
}

func TestRenderReport(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureMinimal.Taxonomy(t))
	db.MustSaveEstimate("Food", "Groceries", 2025, time.March, "400", false)
	db.MustSaveEstimate("Food", "Dining", 2025, time.March, "100", false)
	db.MustAddExpense("2025-03-03", "Alice", "250", "Food", "Groceries", "market")
	db.MustAddExpense("2025-03-09", "Bob", "130", "Food", "Dining", "bistro")

	aggregator, err := budget.NewAggregator(db.Storage, []string{"Alice", "Bob"})
	require.NoError(t, err)
	report, err := aggregator.ComputeReport(context.Background(), 2025, time.March, db.Taxonomy)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RenderReport(&out, report))

	text := out.String()
	assert.Contains(t, text, "Budget for March 2025")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "Bob")
	assert.Contains(t, text, "$500.00")
	assert.Contains(t, text, "$380.00")
	assert.Contains(t, text, "-$30.00")
	assert.Contains(t, text, "100.0%")
	assert.Contains(t, text, "1 subcategory over budget")
}

func TestRenderReport_NoSpending(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureMinimal.Taxonomy(t))
	aggregator, err := budget.NewAggregator(db.Storage, []string{"Alice", "Bob"})
	require.NoError(t, err)
	report, err := aggregator.ComputeReport(context.Background(), 2025, time.April, db.Taxonomy)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RenderReport(&out, report))
	assert.Contains(t, out.String(), "0.0%")
	assert.NotContains(t, out.String(), "over budget")
}

func TestRenderSettlement(t *testing.T) {
	var out bytes.Buffer
	totals := []model.PersonTotal{
		{Person: "Alice", Amount: decimal.RequireFromString("120.25")},
		{Person: "Bob", Amount: decimal.Zero},
	}

	require.NoError(t, RenderSettlement(&out, 2025, time.March, totals))
	assert.Contains(t, out.String(), "Settlement for March 2025")
	assert.Contains(t, out.String(), "$120.25")
	assert.Contains(t, out.String(), "$0.00")
}

func TestRenderExpenses(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderExpenses(&out, nil))
	assert.Contains(t, out.String(), "No expenses found.")

	out.Reset()
	expenses := []model.Expense{
		{
			ID:          7,
			Date:        time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
			Person:      "Alice",
			Amount:      decimal.RequireFromString("1500"),
			Category:    "Housing",
			Subcategory: "Rent",
			Description: "march rent",
			Realized:    true,
		},
	}
	require.NoError(t, RenderExpenses(&out, expenses))
	text := out.String()
	assert.Contains(t, text, "2025-03-02")
	assert.Contains(t, text, "Housing / Rent")
	assert.Contains(t, text, "$1,500.00 across 1 expense")
}

func TestRenderPatterns(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	patterns := []model.LearnedPattern{
		{Description: "blue bottle", Category: "Food", Subcategory: "Coffee", UsageCount: 1200, LastUsed: now.Add(-72 * time.Hour)},
	}

	var out bytes.Buffer
	require.NoError(t, RenderPatterns(&out, patterns, now))
	assert.Contains(t, out.String(), "1,200")
	assert.Contains(t, out.String(), "3 days ago")
}

func TestRenderSuggestion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderSuggestion(&out, "tea", nil))
	assert.Contains(t, out.String(), `No suggestion for "tea"`)

	out.Reset()
	suggestion := &pattern.Suggestion{
		Category:    "Food",
		Subcategory: "Coffee",
		Source:      pattern.SourceExact,
		Confidence:  1,
	}
	require.NoError(t, RenderSuggestion(&out, "latte", suggestion))
	assert.Contains(t, out.String(), "Food / Coffee")
	assert.Contains(t, out.String(), "exact")
	assert.Contains(t, out.String(), "1.00")
}

func TestRenderTaxonomy(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderTaxonomy(&out, testutil.FixtureMinimal.Taxonomy(t)))
	assert.Contains(t, out.String(), "Categories (1)")
	assert.Contains(t, out.String(), "• Dining")
}

func TestRenderImportSummary(t *testing.T) {
	summary := &ofx.Summary{
		Saved:        3,
		Duplicates:   1,
		Unclassified: 1,
		Outcomes: []ofx.Outcome{
			{Status: ofx.StatusSaved, Draft: ofx.Draft{Description: "NETFLIX.COM"}},
			{
				Status: ofx.StatusUnclassified,
				Draft: ofx.Draft{
					Date:        time.Date(2024, time.January, 25, 0, 0, 0, 0, time.UTC),
					Amount:      decimal.RequireFromString("500"),
					Description: "CHECK #1234",
				},
				Suggestion: &pattern.Suggestion{Category: "Food", Subcategory: "Coffee", Confidence: 0.55},
			},
		},
	}

	var out bytes.Buffer
	require.NoError(t, RenderImportSummary(&out, summary, true))
	text := out.String()
	assert.Contains(t, text, "Would save")
	assert.Contains(t, text, "CHECK #1234")
	assert.Contains(t, text, "Food / Coffee (0.55)")
	assert.NotContains(t, text, "NETFLIX.COM")
}
