// Package pattern suggests categories for expense descriptions from what
// has been learned about earlier expenses.
package pattern

import (
	"context"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Store is the persistence the suggester reads from and writes to.
type Store interface {
	RecordPattern(ctx context.Context, description, category, subcategory string, at time.Time) error
	GetPatternsByDescription(ctx context.Context, description string) ([]model.LearnedPattern, error)
	GetLearnedPatterns(ctx context.Context) ([]model.LearnedPattern, error)
	FindTopCategoryForKeyword(ctx context.Context, keyword string) (*model.KeywordMatch, error)
}

// Source names the strategy that produced a suggestion.
type Source string

// Suggestion sources, in the order they are tried.
const (
	SourceExact   Source = "exact"
	SourceFuzzy   Source = "fuzzy"
	SourceKeyword Source = "keyword"
)

// Suggestion is a proposed category pair for a description.
type Suggestion struct {
	Category    string
	Subcategory string
	Source      Source
	Reason      string
	// Confidence is 1.0 for exact matches. Fuzzy scores carry a usage boost
	// and can exceed 1.0; keyword scores are capped at 0.9.
	Confidence float64
}

// Pair returns the suggested category pair.
func (s Suggestion) Pair() model.CategoryPair {
	return model.CategoryPair{Category: s.Category, Subcategory: s.Subcategory}
}
