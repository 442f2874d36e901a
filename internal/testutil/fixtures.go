package testutil

import (
	"testing"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Fixture is a named, predefined taxonomy for tests.
type Fixture struct {
	categories map[string][]string
	name       string
}

// Name returns the fixture's descriptive name.
func (f Fixture) Name() string { return f.name }

// Taxonomy builds the fixture's taxonomy, failing the test on error.
func (f Fixture) Taxonomy(t *testing.T) model.Taxonomy {
	t.Helper()
	return MustTaxonomy(t, f.categories)
}

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal has a single category with two subcategories.
	FixtureMinimal = Fixture{
		name: "Minimal",
		categories: map[string][]string{
			"Food": {"Groceries", "Dining"},
		},
	}

	// FixtureStandard covers the categories most household tests touch.
	FixtureStandard = Fixture{
		name: "Standard",
		categories: map[string][]string{
			"Food":      {"Groceries", "Dining", "Coffee"},
			"Housing":   {"Rent", "Insurance"},
			"Transport": {"Fuel", "Transit"},
			"Utilities": {"Electric", "Internet", "Water"},
		},
	}
)

// MustTaxonomy builds a taxonomy from a category map, failing the test on error.
func MustTaxonomy(t *testing.T, categories map[string][]string) model.Taxonomy {
	t.Helper()
	taxonomy, err := model.NewTaxonomy(categories)
	if err != nil {
		t.Fatalf("invalid taxonomy fixture: %v", err)
	}
	return taxonomy
}
