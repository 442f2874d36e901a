package model

import (
	"time"
)

// LearnedPattern remembers that a normalized expense description was
// categorized as a given pair. The (Description, Category, Subcategory)
// triple is unique; repeat observations bump UsageCount.
type LearnedPattern struct {
	LastUsed    time.Time
	Description string
	Category    string
	Subcategory string
	ID          int64
	UsageCount  int
}

// Pair returns the pattern's category/subcategory pair.
func (p LearnedPattern) Pair() CategoryPair {
	return CategoryPair{Category: p.Category, Subcategory: p.Subcategory}
}
