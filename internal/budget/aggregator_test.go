package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func newTestAggregator(t *testing.T, store Store) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(store, []string{"Alice", "Bob"})
	require.NoError(t, err)
	return agg
}

func TestNewAggregator(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureMinimal.Taxonomy(t))

	_, err := NewAggregator(nil, []string{"Alice"})
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = NewAggregator(db.Storage, []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoPeople)

	_, err = NewAggregator(db.Storage, []string{"Alice", " Alice"})
	assert.ErrorIs(t, err, ErrDupPerson)

	agg, err := NewAggregator(db.Storage, []string{" Alice ", "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, agg.People())
}

func TestComputeReport_EmptyMonthHasEveryPair(t *testing.T) {
	taxonomy := testutil.FixtureMinimal.Taxonomy(t)
	db := testutil.SetupTestDB(t, taxonomy)
	agg := newTestAggregator(t, db.Storage)

	report, err := agg.ComputeReport(context.Background(), 2025, time.March, taxonomy)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Dining", rows[0].Subcategory)
	assert.Equal(t, "Groceries", rows[1].Subcategory)
	for _, row := range rows {
		assert.True(t, row.Estimate.IsZero())
		assert.True(t, row.TotalActual.IsZero())
		assert.True(t, row.Variance.IsZero())
		assert.False(t, row.Orphaned)
	}
	assert.Zero(t, report.Share("Food"))
	assert.Empty(t, report.OverBudget())
}

func TestComputeReport_VarianceAndTotals(t *testing.T) {
	taxonomy := testutil.FixtureStandard.Taxonomy(t)
	db := testutil.SetupTestDB(t, taxonomy)
	agg := newTestAggregator(t, db.Storage)

	db.MustAddExpense("2025-03-01", "Alice", "350", "Food", "Groceries", "market")
	db.MustAddExpense("2025-03-31", "Bob", "250", "Food", "Groceries", "market")
	db.MustAddExpense("2025-03-10", "Bob", "400", "Housing", "Rent", "rent")
	db.MustAddExpense("2025-04-01", "Alice", "999", "Food", "Groceries", "next month")
	db.MustAddExpense("2025-02-28", "Alice", "999", "Food", "Groceries", "last month")
	db.MustSaveEstimate("Food", "Groceries", 2025, time.March, "500", false)
	db.MustSaveEstimate("Housing", "Rent", 2025, time.March, "500", false)

	report, err := agg.ComputeReport(context.Background(), 2025, time.March, taxonomy)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, report.People)
	assert.Len(t, report.Rows(), 10)

	food, ok := report.Category("Food")
	require.True(t, ok)
	groceries := food.Rows[2]
	require.Equal(t, "Groceries", groceries.Subcategory)
	assertDecimal(t, "350", groceries.Actual("Alice"))
	assertDecimal(t, "250", groceries.Actual("Bob"))
	assertDecimal(t, "600", groceries.TotalActual)
	assertDecimal(t, "-100", groceries.Variance)
	assert.True(t, groceries.OverBudget())

	housing, ok := report.Category("Housing")
	require.True(t, ok)
	assertDecimal(t, "100", housing.Variance)
	assertDecimal(t, "400", housing.Actual("Bob"))
	assert.True(t, housing.Actual("Alice").IsZero())

	assertDecimal(t, "1000", report.Total.Estimate)
	assertDecimal(t, "1000", report.Total.TotalActual)
	assertDecimal(t, "0", report.Total.Variance)
	assertDecimal(t, "350", report.Total.Actual("Alice"))
	assertDecimal(t, "650", report.Total.Actual("Bob"))

	assert.InDelta(t, 60.0, report.Share("Food"), 1e-9)
	assert.InDelta(t, 40.0, report.Share("Housing"), 1e-9)
	assert.Zero(t, report.Share("Utilities"))

	over := report.OverBudget()
	require.Len(t, over, 1)
	assert.Equal(t, model.CategoryPair{Category: "Food", Subcategory: "Groceries"}, over[0].Pair())
}

func TestComputeReport_OrphanedPairs(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)

	db.MustAddExpense("2025-05-02", "Alice", "20", "Food", "Coffee", "latte")
	db.MustAddExpense("2025-05-03", "Carol", "15", "Transport", "Transit", "bus")
	db.MustSaveEstimate("Housing", "Insurance", 2025, time.May, "80", false)

	// Report against a narrower taxonomy than the one the data was filed under.
	narrow := testutil.MustTaxonomy(t, map[string][]string{"Food": {"Groceries"}})
	report, err := agg.ComputeReport(context.Background(), 2025, time.May, narrow)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "Coffee", rows[0].Subcategory)
	assert.True(t, rows[0].Orphaned)
	assert.Equal(t, "Groceries", rows[1].Subcategory)
	assert.False(t, rows[1].Orphaned)
	assert.Equal(t, "Insurance", rows[2].Subcategory)
	assert.True(t, rows[2].Orphaned)
	assert.Equal(t, "Transit", rows[3].Subcategory)

	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, report.People)
	assertDecimal(t, "35", report.Total.TotalActual)
	assertDecimal(t, "80", report.Total.Estimate)
}

func TestComputeReport_InvalidMonth(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureMinimal.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)

	_, err := agg.ComputeReport(context.Background(), 2025, 13, model.Taxonomy{})
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestApplyDefaultsToMonth(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)
	ctx := context.Background()

	db.MustSaveEstimate("Housing", "Rent", 2024, time.November, "1200", true)
	db.MustSaveEstimate("Housing", "Rent", 2025, time.January, "1300", true)
	db.MustSaveEstimate("Food", "Groceries", 2025, time.January, "450", true)
	db.MustSaveEstimate("Food", "Dining", 2025, time.January, "90", false)

	applied, err := agg.ApplyDefaultsToMonth(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	estimates, err := db.Storage.GetEstimates(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, estimates, 2)
	assert.Equal(t, "Groceries", estimates[0].Subcategory)
	assertDecimal(t, "450", estimates[0].Amount)
	assertDecimal(t, "1300", estimates[1].Amount)
	for _, e := range estimates {
		assert.False(t, e.IsDefault, "copied estimates must not be defaults")
	}
}

func TestApplyDefaultsToMonth_NoopWhenMonthHasEstimates(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)
	ctx := context.Background()

	db.MustSaveEstimate("Housing", "Rent", 2025, time.January, "1300", true)
	db.MustSaveEstimate("Food", "Dining", 2025, time.March, "75", false)

	applied, err := agg.ApplyDefaultsToMonth(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Zero(t, applied)

	estimates, err := db.Storage.GetEstimates(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.Equal(t, "Dining", estimates[0].Subcategory)
	assertDecimal(t, "75", estimates[0].Amount)
}

func TestCopyFromPreviousMonth_AcrossYearBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)
	ctx := context.Background()

	db.MustSaveEstimate("Food", "Groceries", 2024, time.December, "480", true)
	db.MustSaveEstimate("Utilities", "Internet", 2024, time.December, "60", false)
	db.MustSaveEstimate("Utilities", "Internet", 2025, time.January, "55", false)

	copied, err := agg.CopyFromPreviousMonth(ctx, 2025, time.January)
	require.NoError(t, err)
	assert.Equal(t, 2, copied)

	estimates, err := db.Storage.GetEstimates(ctx, 2025, time.January)
	require.NoError(t, err)
	require.Len(t, estimates, 2)
	assertDecimal(t, "480", estimates[0].Amount)
	assert.False(t, estimates[0].IsDefault)
	assertDecimal(t, "60", estimates[1].Amount, "existing estimate is overwritten")
}

// failingStore wraps a real store and fails saves for one subcategory.
type failingStore struct {
	Store
	failSubcategory string
}

func (f failingStore) SaveEstimate(ctx context.Context, estimate *model.BudgetEstimate) error {
	if estimate.Subcategory == f.failSubcategory {
		return errors.New("disk full")
	}
	return f.Store.SaveEstimate(ctx, estimate)
}

func TestCopyFromPreviousMonth_SkipsFailedRows(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, failingStore{Store: db.Storage, failSubcategory: "Rent"})

	db.MustSaveEstimate("Housing", "Rent", 2025, time.May, "1300", false)
	db.MustSaveEstimate("Food", "Coffee", 2025, time.May, "30", false)

	copied, err := agg.CopyFromPreviousMonth(context.Background(), 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
}

func TestPopulateMonth(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults first", func(t *testing.T) {
		db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
		agg := newTestAggregator(t, db.Storage)
		db.MustSaveEstimate("Housing", "Rent", 2025, time.January, "1300", true)
		db.MustSaveEstimate("Food", "Coffee", 2025, time.February, "30", false)

		strategy, n, err := agg.PopulateMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		assert.Equal(t, StrategyDefaults, strategy)
		assert.Equal(t, 1, n)
	})

	t.Run("previous month without defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
		agg := newTestAggregator(t, db.Storage)
		db.MustSaveEstimate("Food", "Coffee", 2025, time.February, "30", false)
		db.MustSaveEstimate("Food", "Dining", 2025, time.February, "90", false)

		strategy, n, err := agg.PopulateMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		assert.Equal(t, StrategyPrevious, strategy)
		assert.Equal(t, 2, n)
	})

	t.Run("existing month untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
		agg := newTestAggregator(t, db.Storage)
		db.MustSaveEstimate("Housing", "Rent", 2025, time.January, "1300", true)
		db.MustSaveEstimate("Food", "Coffee", 2025, time.March, "30", false)

		strategy, n, err := agg.PopulateMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		assert.Equal(t, StrategyExisting, strategy)
		assert.Zero(t, n)
	})
}

func TestSettlement(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	agg := newTestAggregator(t, db.Storage)
	ctx := context.Background()

	first := db.MustAddExpense("2025-03-02", "Bob", "40", "Food", "Dining", "pizza")
	db.MustAddExpense("2025-03-05", "Bob", "12.75", "Food", "Coffee", "beans")
	db.MustAddExpense("2025-03-09", "Dana", "5", "Transport", "Transit", "bus")
	require.NoError(t, db.Storage.MarkRealized(ctx, first.ID, true))

	totals, err := agg.Settlement(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, "Alice", totals[0].Person)
	assert.True(t, totals[0].Amount.IsZero())
	assert.Equal(t, "Bob", totals[1].Person)
	assertDecimal(t, "12.75", totals[1].Amount)
	assert.Equal(t, "Dana", totals[2].Person)
}
