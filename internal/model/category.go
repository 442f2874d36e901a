package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Taxonomy errors.
var (
	ErrEmptyCategoryName    = errors.New("category name cannot be empty")
	ErrEmptySubcategoryName = errors.New("subcategory name cannot be empty")
	ErrDuplicateSubcategory = errors.New("subcategory already exists in category")
)

// CategoryPair identifies a subcategory within its parent category.
type CategoryPair struct {
	Category    string
	Subcategory string
}

// String renders the pair as "Category / Subcategory".
func (p CategoryPair) String() string {
	return p.Category + " / " + p.Subcategory
}

// Less orders pairs by category, then subcategory.
func (p CategoryPair) Less(other CategoryPair) bool {
	if p.Category != other.Category {
		return p.Category < other.Category
	}
	return p.Subcategory < other.Subcategory
}

// Taxonomy is the two-level category tree used to classify expenses.
// Category names are unique, and subcategory names are unique within
// their category. The zero value is an empty, usable taxonomy.
type Taxonomy struct {
	entries map[string]map[string]struct{}
}

// NewTaxonomy builds a taxonomy from a category → subcategories mapping.
// Names are trimmed; duplicates within a category are rejected.
func NewTaxonomy(categories map[string][]string) (Taxonomy, error) {
	var t Taxonomy
	for category, subcategories := range categories {
		if err := t.AddCategory(category); err != nil {
			return Taxonomy{}, err
		}
		for _, sub := range subcategories {
			if err := t.Add(category, sub); err != nil {
				return Taxonomy{}, fmt.Errorf("category %q: %w", category, err)
			}
		}
	}
	return t, nil
}

// AddCategory registers a category with no subcategories. Adding an
// existing category is a no-op.
func (t *Taxonomy) AddCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategoryName
	}
	if t.entries == nil {
		t.entries = make(map[string]map[string]struct{})
	}
	if _, ok := t.entries[category]; !ok {
		t.entries[category] = make(map[string]struct{})
	}
	return nil
}

// Add registers a subcategory, creating its category if needed.
func (t *Taxonomy) Add(category, subcategory string) error {
	if err := t.AddCategory(category); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return ErrEmptySubcategoryName
	}
	subs := t.entries[category]
	if _, ok := subs[subcategory]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSubcategory, CategoryPair{category, subcategory})
	}
	subs[subcategory] = struct{}{}
	return nil
}

// HasCategory reports whether the category exists.
func (t Taxonomy) HasCategory(category string) bool {
	_, ok := t.entries[category]
	return ok
}

// Has reports whether the category/subcategory pair exists.
func (t Taxonomy) Has(category, subcategory string) bool {
	subs, ok := t.entries[category]
	if !ok {
		return false
	}
	_, ok = subs[subcategory]
	return ok
}

// Categories returns the category names in ascending order.
func (t Taxonomy) Categories() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subcategories returns the subcategories of a category in ascending order.
// Unknown categories yield an empty slice.
func (t Taxonomy) Subcategories(category string) []string {
	subs := t.entries[category]
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pairs returns every category/subcategory pair, ordered by category and
// then subcategory.
func (t Taxonomy) Pairs() []CategoryPair {
	var pairs []CategoryPair
	for _, category := range t.Categories() {
		for _, sub := range t.Subcategories(category) {
			pairs = append(pairs, CategoryPair{Category: category, Subcategory: sub})
		}
	}
	return pairs
}

// Len returns the number of category/subcategory pairs.
func (t Taxonomy) Len() int {
	n := 0
	for _, subs := range t.entries {
		n += len(subs)
	}
	return n
}

// Map returns a copy of the taxonomy as sorted subcategory lists.
func (t Taxonomy) Map() map[string][]string {
	out := make(map[string][]string, len(t.entries))
	for _, category := range t.Categories() {
		out[category] = t.Subcategories(category)
	}
	return out
}

// Clone returns a deep copy that shares no state with t.
func (t Taxonomy) Clone() Taxonomy {
	var c Taxonomy
	for category, subs := range t.entries {
		_ = c.AddCategory(category)
		for sub := range subs {
			c.entries[category][sub] = struct{}{}
		}
	}
	return c
}
