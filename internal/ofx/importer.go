package ofx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/pattern"
)

// Importer errors.
var (
	ErrNilDependency = errors.New("importer dependency cannot be nil")
	ErrNoPerson      = errors.New("import person cannot be empty")
)

// ExpenseStore is the persistence the importer writes to.
type ExpenseStore interface {
	ExpenseHashExists(ctx context.Context, hash string) (bool, error)
	AddExpenses(ctx context.Context, expenses []model.Expense) (int, error)
}

// Suggester proposes a category pair for a description.
type Suggester interface {
	Suggest(ctx context.Context, description string) (*pattern.Suggestion, error)
}

// TransferMatcher recognizes descriptions of transfers between the
// household's own accounts.
type TransferMatcher interface {
	Match(description string) (string, bool)
}

// Status is what happened to one draft.
type Status string

// Draft outcomes.
const (
	StatusSaved        Status = "saved"
	StatusDuplicate    Status = "duplicate"
	StatusUnclassified Status = "unclassified"
	StatusTransfer     Status = "transfer"
)

// Outcome pairs a draft with its suggestion and status.
type Outcome struct {
	Suggestion *pattern.Suggestion
	Status     Status
	Draft      Draft
}

// Summary reports an import run. In a dry run Saved counts the drafts that
// would have been saved.
type Summary struct {
	Outcomes     []Outcome
	Saved        int
	Duplicates   int
	Unclassified int
	Transfers    int
}

// Options controls an import run.
type Options struct {
	Person        string
	MinConfidence float64
	DryRun        bool
}

// Importer categorizes drafts and stores the confident ones as expenses.
type Importer struct {
	store     ExpenseStore
	suggester Suggester
	taxonomy  model.Taxonomy
	transfers TransferMatcher
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithTransferFilter skips drafts whose description matches m.
func WithTransferFilter(m TransferMatcher) ImporterOption {
	return func(i *Importer) {
		i.transfers = m
	}
}

// NewImporter creates an importer. Suggestions are only accepted for pairs
// present in taxonomy.
func NewImporter(store ExpenseStore, suggester Suggester, taxonomy model.Taxonomy, opts ...ImporterOption) (*Importer, error) {
	if store == nil || suggester == nil {
		return nil, ErrNilDependency
	}
	i := &Importer{store: store, suggester: suggester, taxonomy: taxonomy}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Import processes drafts in order. progress, when set, is called once per
// draft. Expenses are written in one batch at the end; on cancellation
// nothing from this run is written.
func (i *Importer) Import(ctx context.Context, drafts []Draft, opts Options, progress func()) (*Summary, error) {
	person := strings.TrimSpace(opts.Person)
	if person == "" {
		return nil, ErrNoPerson
	}

	summary := &Summary{Outcomes: make([]Outcome, 0, len(drafts))}
	var pending []model.Expense
	seen := make(map[string]struct{}, len(drafts))

	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := i.classify(ctx, draft, opts.MinConfidence, seen)
		if err != nil {
			return nil, err
		}

		switch outcome.Status {
		case StatusSaved:
			summary.Saved++
			pending = append(pending, draft.Expense(person, outcome.Suggestion.Category, outcome.Suggestion.Subcategory))
		case StatusDuplicate:
			summary.Duplicates++
		case StatusUnclassified:
			summary.Unclassified++
		case StatusTransfer:
			summary.Transfers++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		if progress != nil {
			progress()
		}
	}

	if opts.DryRun || len(pending) == 0 {
		return summary, nil
	}

	inserted, err := i.store.AddExpenses(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to save imported expenses: %w", err)
	}
	if skipped := len(pending) - inserted; skipped > 0 {
		slog.Warn("Some imported expenses were already stored", "skipped", skipped)
		summary.Saved = inserted
		summary.Duplicates += skipped
	}

	slog.Info("📥 Imported expenses",
		"saved", summary.Saved,
		"duplicates", summary.Duplicates,
		"unclassified", summary.Unclassified,
		"transfers", summary.Transfers)
	return summary, nil
}

func (i *Importer) classify(ctx context.Context, draft Draft, minConfidence float64, seen map[string]struct{}) (Outcome, error) {
	outcome := Outcome{Draft: draft}

	if draft.Hash != "" {
		if _, dup := seen[draft.Hash]; dup {
			outcome.Status = StatusDuplicate
			return outcome, nil
		}
		seen[draft.Hash] = struct{}{}

		exists, err := i.store.ExpenseHashExists(ctx, draft.Hash)
		if err != nil {
			return outcome, fmt.Errorf("failed to check for duplicate %s: %w", draft.FITID, err)
		}
		if exists {
			outcome.Status = StatusDuplicate
			return outcome, nil
		}
	}

	if i.transfers != nil {
		if name, ok := i.transfers.Match(draft.Description); ok {
			slog.Debug("Skipping transfer", "description", draft.Description, "pattern", name)
			outcome.Status = StatusTransfer
			return outcome, nil
		}
	}

	suggestion, err := i.suggester.Suggest(ctx, draft.Description)
	if err != nil {
		return outcome, fmt.Errorf("failed to suggest category for %q: %w", draft.Description, err)
	}
	outcome.Suggestion = suggestion

	switch {
	case suggestion == nil:
		outcome.Status = StatusUnclassified
	case suggestion.Confidence < minConfidence:
		slog.Debug("Suggestion below threshold",
			"description", draft.Description,
			"confidence", suggestion.Confidence,
			"min_confidence", minConfidence)
		outcome.Status = StatusUnclassified
	case !i.taxonomy.Has(suggestion.Category, suggestion.Subcategory):
		slog.Debug("Suggested pair no longer exists",
			"description", draft.Description,
			"pair", suggestion.Pair().String())
		outcome.Status = StatusUnclassified
	default:
		outcome.Status = StatusSaved
	}
	return outcome, nil
}
