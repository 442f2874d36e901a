package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/classification"
	"github.com/Veraticus/the-budget-must-balance/internal/pattern"
	"github.com/Veraticus/the-budget-must-balance/internal/testutil"
)

type fixedSuggester map[string]*pattern.Suggestion

func (f fixedSuggester) Suggest(_ context.Context, description string) (*pattern.Suggestion, error) {
	return f[description], nil
}

func parseDrafts(t *testing.T, data string) []Draft {
	t.Helper()
	result, err := NewParser().ParseFile(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	return result.Drafts
}

func TestNewImporter_NilDependencies(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))

	_, err := NewImporter(nil, fixedSuggester{}, db.Taxonomy)
	assert.ErrorIs(t, err, ErrNilDependency)
	_, err = NewImporter(db.Storage, nil, db.Taxonomy)
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestImport_SavesConfidentAndSkipsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	ctx := context.Background()

	suggester, err := pattern.NewSuggester(db.Storage)
	require.NoError(t, err)
	require.NoError(t, suggester.RecordMapping(ctx, "STARBUCKS STORE #1234", "Food", "Coffee"))
	require.NoError(t, suggester.RecordMapping(ctx, "Whole Foods Market", "Food", "Groceries"))

	importer, err := NewImporter(db.Storage, suggester, db.Taxonomy)
	require.NoError(t, err)

	drafts := parseDrafts(t, sampleBankOFX)
	calls := 0
	summary, err := importer.Import(ctx, drafts, Options{Person: "Alice", MinConfidence: 0.6}, func() { calls++ })
	require.NoError(t, err)

	assert.Equal(t, len(drafts), calls)
	assert.Equal(t, 2, summary.Saved)
	assert.Equal(t, 2, summary.Unclassified)
	assert.Zero(t, summary.Duplicates)
	assert.Equal(t, StatusSaved, summary.Outcomes[0].Status)
	assert.Equal(t, StatusUnclassified, summary.Outcomes[2].Status)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses, err := db.Storage.GetExpenses(ctx, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	for _, e := range expenses {
		assert.Equal(t, "Alice", e.Person)
		assert.NotEmpty(t, e.Hash)
		assert.False(t, e.Realized)
	}

	again, err := importer.Import(ctx, drafts, Options{Person: "Alice", MinConfidence: 0.6}, nil)
	require.NoError(t, err)
	assert.Zero(t, again.Saved)
	assert.Equal(t, 2, again.Duplicates)

	expenses, err = db.Storage.GetExpenses(ctx, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	ctx := context.Background()

	suggester := fixedSuggester{
		"AMAZON.COM*RT4Y7HG2": {Category: "Housing", Subcategory: "Insurance", Confidence: 1},
		"NETFLIX.COM":         {Category: "Utilities", Subcategory: "Internet", Confidence: 1},
	}
	importer, err := NewImporter(db.Storage, suggester, db.Taxonomy)
	require.NoError(t, err)

	summary, err := importer.Import(ctx, parseDrafts(t, sampleCreditCardOFX), Options{Person: "Bob", DryRun: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Saved)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses, err := db.Storage.GetExpenses(ctx, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestImport_Thresholds(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))

	tests := []struct {
		suggestion    *pattern.Suggestion
		name          string
		minConfidence float64
		expected      Status
	}{
		{
			name:          "at threshold is accepted",
			suggestion:    &pattern.Suggestion{Category: "Food", Subcategory: "Coffee", Confidence: 0.55},
			minConfidence: 0.55,
			expected:      StatusSaved,
		},
		{
			name:          "below threshold",
			suggestion:    &pattern.Suggestion{Category: "Food", Subcategory: "Coffee", Confidence: 0.55},
			minConfidence: 0.6,
			expected:      StatusUnclassified,
		},
		{
			name:          "pair missing from taxonomy",
			suggestion:    &pattern.Suggestion{Category: "Food", Subcategory: "Snacks", Confidence: 1},
			minConfidence: 0.5,
			expected:      StatusUnclassified,
		},
		{
			name:          "no suggestion",
			minConfidence: 0.5,
			expected:      StatusUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer, err := NewImporter(db.Storage, fixedSuggester{"NETFLIX.COM": tt.suggestion}, db.Taxonomy)
			require.NoError(t, err)

			drafts := parseDrafts(t, sampleCreditCardOFX)[1:]
			summary, err := importer.Import(context.Background(), drafts,
				Options{Person: "Bob", MinConfidence: tt.minConfidence, DryRun: true}, nil)
			require.NoError(t, err)
			require.Len(t, summary.Outcomes, 1)
			assert.Equal(t, tt.expected, summary.Outcomes[0].Status)
		})
	}
}

func TestImport_RepeatedDraftInOneRun(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	suggester := fixedSuggester{
		"NETFLIX.COM": {Category: "Utilities", Subcategory: "Internet", Confidence: 1},
	}
	importer, err := NewImporter(db.Storage, suggester, db.Taxonomy)
	require.NoError(t, err)

	draft := parseDrafts(t, sampleCreditCardOFX)[1]
	summary, err := importer.Import(context.Background(), []Draft{draft, draft}, Options{Person: "Bob"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestImport_RequiresPerson(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	importer, err := NewImporter(db.Storage, fixedSuggester{}, db.Taxonomy)
	require.NoError(t, err)

	_, err = importer.Import(context.Background(), nil, Options{Person: "  "}, nil)
	assert.ErrorIs(t, err, ErrNoPerson)
}

func TestImport_SkipsTransfers(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.FixtureStandard.Taxonomy(t))
	detector, err := classification.NewDetector(classification.DefaultTransferPatterns())
	require.NoError(t, err)

	suggester := fixedSuggester{
		"ONLINE TRANSFER TO SAVINGS": {Category: "Housing", Subcategory: "Rent", Confidence: 1},
	}
	importer, err := NewImporter(db.Storage, suggester, db.Taxonomy, WithTransferFilter(detector))
	require.NoError(t, err)

	drafts := []Draft{{
		Date:        time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("200"),
		Description: "ONLINE TRANSFER TO SAVINGS",
		Hash:        "transfer-1",
	}}
	summary, err := importer.Import(context.Background(), drafts, Options{Person: "Alice"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Transfers)
	assert.Zero(t, summary.Saved)
	assert.Equal(t, StatusTransfer, summary.Outcomes[0].Status)
}
