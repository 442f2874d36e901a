package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ErrNilStore is returned when a Suggester is built without a store.
var ErrNilStore = errors.New("pattern store cannot be nil")

// Suggester proposes categories for free-text expense descriptions and
// learns from confirmed categorizations.
type Suggester struct {
	store Store
	now   func() time.Time
}

// NewSuggester creates a suggester backed by store.
func NewSuggester(store Store) (*Suggester, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &Suggester{store: store, now: time.Now}, nil
}

// Suggest returns the best category pair for description, trying an exact
// match, then word-overlap similarity against learned patterns, then a
// keyword search over past expenses. It returns nil when no strategy
// produces a candidate.
func (s *Suggester) Suggest(ctx context.Context, description string) (*Suggestion, error) {
	normalized := Normalize(description)
	if normalized == "" {
		return nil, nil
	}

	if suggestion, err := s.exactMatch(ctx, normalized); err != nil || suggestion != nil {
		return suggestion, err
	}

	if suggestion, err := s.fuzzyMatch(ctx, normalized); err != nil || suggestion != nil {
		return suggestion, err
	}

	return s.keywordMatch(ctx, normalized), nil
}

func (s *Suggester) exactMatch(ctx context.Context, normalized string) (*Suggestion, error) {
	patterns, err := s.store.GetPatternsByDescription(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", normalized, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	best := patterns[0]
	return &Suggestion{
		Category:    best.Category,
		Subcategory: best.Subcategory,
		Confidence:  1.0,
		Source:      SourceExact,
		Reason:      fmt.Sprintf("used %d time(s) for this exact description", best.UsageCount),
	}, nil
}

func (s *Suggester) fuzzyMatch(ctx context.Context, normalized string) (*Suggestion, error) {
	words := wordSet(normalized)
	if len(words) == 0 {
		return nil, nil
	}

	patterns, err := s.store.GetLearnedPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load learned patterns: %w", err)
	}

	var (
		best      *model.LearnedPattern
		bestScore float64
	)
	for i := range patterns {
		candidate := wordSet(patterns[i].Description)
		if len(candidate) == 0 {
			continue
		}

		score := jaccard(words, candidate) * usageBoost(patterns[i].UsageCount)
		if score > bestScore && score > fuzzyThreshold {
			best = &patterns[i]
			bestScore = score
		}
	}

	if best == nil {
		return nil, nil
	}

	return &Suggestion{
		Category:    best.Category,
		Subcategory: best.Subcategory,
		Confidence:  bestScore,
		Source:      SourceFuzzy,
		Reason:      fmt.Sprintf("similar to %q", best.Description),
	}, nil
}

// keywordMatch never fails: a word whose search errors is logged and skipped.
func (s *Suggester) keywordMatch(ctx context.Context, normalized string) *Suggestion {
	var best *model.KeywordMatch
	for _, word := range keywords(normalized) {
		match, err := s.store.FindTopCategoryForKeyword(ctx, word)
		if err != nil {
			slog.Warn("Keyword search failed", "keyword", word, "error", err)
			continue
		}
		if match == nil || match.Count < 1 {
			continue
		}
		if best == nil || match.Count > best.Count {
			best = match
		}
	}

	if best == nil {
		return nil
	}

	return &Suggestion{
		Category:    best.Category,
		Subcategory: best.Subcategory,
		Confidence:  keywordConfidence(best.Count),
		Source:      SourceKeyword,
		Reason:      fmt.Sprintf("%d past expense(s) mention %q", best.Count, best.Keyword),
	}
}

// RecordMapping remembers that description was filed under the given pair.
// A blank description is ignored.
func (s *Suggester) RecordMapping(ctx context.Context, description, category, subcategory string) error {
	normalized := Normalize(description)
	if normalized == "" {
		return nil
	}

	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if category == "" || subcategory == "" {
		return fmt.Errorf("%w: category and subcategory are required", common.ErrInvalidCategory)
	}

	if err := s.store.RecordPattern(ctx, normalized, category, subcategory, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to record mapping for %q: %w", normalized, err)
	}

	slog.Debug("Recorded category mapping",
		"description", normalized,
		"category", category,
		"subcategory", subcategory)
	return nil
}

// History returns every learned pattern, most used first.
func (s *Suggester) History(ctx context.Context) ([]model.LearnedPattern, error) {
	patterns, err := s.store.GetLearnedPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load learned patterns: %w", err)
	}
	return patterns, nil
}
