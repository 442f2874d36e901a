package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Store is the persistence the aggregator needs.
type Store interface {
	GetActualSpend(ctx context.Context, start, end time.Time) ([]model.ActualSpend, error)
	GetUnrealizedByPerson(ctx context.Context, start, end time.Time) ([]model.PersonTotal, error)
	SaveEstimate(ctx context.Context, estimate *model.BudgetEstimate) error
	GetEstimates(ctx context.Context, year int, month time.Month) ([]model.BudgetEstimate, error)
	CountEstimates(ctx context.Context, year int, month time.Month) (int, error)
	GetDefaultEstimates(ctx context.Context) ([]model.BudgetEstimate, error)
}

// Errors returned by NewAggregator.
var (
	ErrNilStore  = errors.New("budget store cannot be nil")
	ErrNoPeople  = errors.New("at least one person is required")
	ErrDupPerson = errors.New("duplicate person")
)

// Strategy names how PopulateMonth filled a month.
type Strategy string

// Populate strategies.
const (
	// StrategyExisting means the month already had estimates.
	StrategyExisting Strategy = "existing"
	StrategyDefaults Strategy = "defaults"
	StrategyPrevious Strategy = "previous"
)

// Aggregator builds monthly reports and manages month-level estimates.
type Aggregator struct {
	store  Store
	people []string
}

// NewAggregator creates an aggregator for the given people, in display order.
func NewAggregator(store Store, people []string) (*Aggregator, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	cleaned := make([]string, 0, len(people))
	for _, p := range people {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if slices.Contains(cleaned, p) {
			return nil, fmt.Errorf("%w: %q", ErrDupPerson, p)
		}
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoPeople
	}

	return &Aggregator{store: store, people: cleaned}, nil
}

// People returns the tracked people in display order.
func (a *Aggregator) People() []string {
	return slices.Clone(a.people)
}

// ComputeReport reconciles a month's spending against its estimates. Every
// taxonomy pair gets a row even without data; pairs with data that are
// missing from the taxonomy are appended as orphaned rows.
func (a *Aggregator) ComputeReport(ctx context.Context, year int, month time.Month, taxonomy model.Taxonomy) (*Report, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	start, end := MonthRange(year, month)
	actuals, err := a.store.GetActualSpend(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load actual spend: %w", err)
	}

	estimates, err := a.store.GetEstimates(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimates: %w", err)
	}

	rows := make(map[model.CategoryPair]*Row)
	rowFor := func(pair model.CategoryPair) *Row {
		row, ok := rows[pair]
		if !ok {
			row = &Row{
				Totals:      newTotals(),
				Category:    pair.Category,
				Subcategory: pair.Subcategory,
				Orphaned:    !taxonomy.Has(pair.Category, pair.Subcategory),
			}
			rows[pair] = row
		}
		return row
	}

	for _, pair := range taxonomy.Pairs() {
		rowFor(pair)
	}

	people := slices.Clone(a.people)
	for _, spend := range actuals {
		row := rowFor(model.CategoryPair{Category: spend.Category, Subcategory: spend.Subcategory})
		row.Actuals[spend.Person] = row.Actuals[spend.Person].Add(spend.Total)
		row.TotalActual = row.TotalActual.Add(spend.Total)
		if !slices.Contains(people, spend.Person) {
			people = append(people, spend.Person)
		}
	}
	slices.Sort(people[len(a.people):])

	for _, estimate := range estimates {
		row := rowFor(estimate.Pair())
		row.Estimate = row.Estimate.Add(estimate.Amount)
	}

	pairs := make([]model.CategoryPair, 0, len(rows))
	for pair, row := range rows {
		row.Variance = row.Estimate.Sub(row.TotalActual)
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, func(x, y model.CategoryPair) int {
		if x.Less(y) {
			return -1
		}
		if y.Less(x) {
			return 1
		}
		return 0
	})

	report := &Report{
		Year:   year,
		Month:  month,
		People: people,
		Total:  newTotals(),
	}
	for _, pair := range pairs {
		row := *rows[pair]
		if n := len(report.Categories); n == 0 || report.Categories[n-1].Category != pair.Category {
			report.Categories = append(report.Categories, CategoryTotal{
				Totals:   newTotals(),
				Category: pair.Category,
			})
		}
		current := &report.Categories[len(report.Categories)-1]
		current.Rows = append(current.Rows, row)
		current.add(row.Totals)
		report.Total.add(row.Totals)
	}

	return report, nil
}

// ApplyDefaultsToMonth seeds an empty month from the default-flagged
// estimates. A month that already has any estimate is left untouched and 0
// is returned. Copied estimates are not themselves defaults.
func (a *Aggregator) ApplyDefaultsToMonth(ctx context.Context, year int, month time.Month) (int, error) {
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	existing, err := a.store.CountEstimates(ctx, year, month)
	if err != nil {
		return 0, fmt.Errorf("failed to count estimates: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	defaults, err := a.store.GetDefaultEstimates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load default estimates: %w", err)
	}

	applied := a.copyEstimates(ctx, defaults, year, month)
	if applied > 0 {
		slog.Info("📋 Applied default estimates",
			"year", year, "month", int(month), "count", applied)
	}
	return applied, nil
}

// CopyFromPreviousMonth upserts the previous month's estimates into the
// given month and returns how many were copied. Rows that fail to save are
// logged and skipped.
func (a *Aggregator) CopyFromPreviousMonth(ctx context.Context, year int, month time.Month) (int, error) {
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	prevYear, prevMonth := PreviousMonth(year, month)
	previous, err := a.store.GetEstimates(ctx, prevYear, prevMonth)
	if err != nil {
		return 0, fmt.Errorf("failed to load estimates for %d-%02d: %w", prevYear, prevMonth, err)
	}

	copied := a.copyEstimates(ctx, previous, year, month)
	if copied > 0 {
		slog.Info("📋 Copied estimates from previous month",
			"from", fmt.Sprintf("%d-%02d", prevYear, prevMonth),
			"to", fmt.Sprintf("%d-%02d", year, month),
			"count", copied)
	}
	return copied, nil
}

func (a *Aggregator) copyEstimates(ctx context.Context, source []model.BudgetEstimate, year int, month time.Month) int {
	copied := 0
	for _, estimate := range source {
		target := model.BudgetEstimate{
			Category:    estimate.Category,
			Subcategory: estimate.Subcategory,
			Amount:      estimate.Amount,
			Year:        year,
			Month:       month,
		}
		if err := a.store.SaveEstimate(ctx, &target); err != nil {
			slog.Warn("Failed to copy estimate",
				"category", estimate.Category,
				"subcategory", estimate.Subcategory,
				"error", err)
			continue
		}
		copied++
	}
	return copied
}

// PopulateMonth fills an empty month from defaults, falling back to the
// previous month when no defaults exist.
func (a *Aggregator) PopulateMonth(ctx context.Context, year int, month time.Month) (Strategy, int, error) {
	if err := validateMonth(year, month); err != nil {
		return "", 0, err
	}

	existing, err := a.store.CountEstimates(ctx, year, month)
	if err != nil {
		return "", 0, fmt.Errorf("failed to count estimates: %w", err)
	}
	if existing > 0 {
		return StrategyExisting, 0, nil
	}

	applied, err := a.ApplyDefaultsToMonth(ctx, year, month)
	if err != nil {
		return "", 0, err
	}
	if applied > 0 {
		return StrategyDefaults, applied, nil
	}

	copied, err := a.CopyFromPreviousMonth(ctx, year, month)
	if err != nil {
		return "", 0, err
	}
	return StrategyPrevious, copied, nil
}

// Settlement returns each person's unrealized spending for the month: money
// spent that has not yet been reimbursed from the shared account. Every
// tracked person is listed, with zero when nothing is outstanding.
func (a *Aggregator) Settlement(ctx context.Context, year int, month time.Month) ([]model.PersonTotal, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	start, end := MonthRange(year, month)
	outstanding, err := a.store.GetUnrealizedByPerson(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load unrealized expenses: %w", err)
	}

	byPerson := make(map[string]decimal.Decimal, len(outstanding))
	var extras []string
	for _, total := range outstanding {
		byPerson[total.Person] = total.Amount
		if !slices.Contains(a.people, total.Person) {
			extras = append(extras, total.Person)
		}
	}
	slices.Sort(extras)

	totals := make([]model.PersonTotal, 0, len(a.people)+len(extras))
	for _, person := range append(slices.Clone(a.people), extras...) {
		totals = append(totals, model.PersonTotal{Person: person, Amount: byPerson[person]})
	}
	return totals, nil
}
