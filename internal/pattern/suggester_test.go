package pattern

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// memoryStore keeps patterns and past expense descriptions in memory.
type memoryStore struct {
	keywordErr map[string]error
	patterns   []model.LearnedPattern
	expenses   []model.Expense
	records    int
}

func (m *memoryStore) RecordPattern(_ context.Context, description, category, subcategory string, at time.Time) error {
	m.records++
	for i := range m.patterns {
		p := &m.patterns[i]
		if p.Description == description && p.Category == category && p.Subcategory == subcategory {
			p.UsageCount++
			p.LastUsed = at
			return nil
		}
	}
	m.patterns = append(m.patterns, model.LearnedPattern{
		ID:          int64(len(m.patterns) + 1),
		Description: description,
		Category:    category,
		Subcategory: subcategory,
		UsageCount:  1,
		LastUsed:    at,
	})
	return nil
}

func (m *memoryStore) sorted() []model.LearnedPattern {
	out := append([]model.LearnedPattern(nil), m.patterns...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

func (m *memoryStore) GetPatternsByDescription(_ context.Context, description string) ([]model.LearnedPattern, error) {
	var out []model.LearnedPattern
	for _, p := range m.sorted() {
		if p.Description == description {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) GetLearnedPatterns(_ context.Context) ([]model.LearnedPattern, error) {
	return m.sorted(), nil
}

func (m *memoryStore) FindTopCategoryForKeyword(_ context.Context, keyword string) (*model.KeywordMatch, error) {
	if err := m.keywordErr[keyword]; err != nil {
		return nil, err
	}

	counts := make(map[model.CategoryPair]int)
	for _, e := range m.expenses {
		if strings.Contains(strings.ToLower(e.Description), keyword) {
			counts[e.Pair()]++
		}
	}

	var best *model.KeywordMatch
	for pair, count := range counts {
		if best == nil || count > best.Count ||
			(count == best.Count && pair.Less(model.CategoryPair{Category: best.Category, Subcategory: best.Subcategory})) {
			best = &model.KeywordMatch{Keyword: keyword, Category: pair.Category, Subcategory: pair.Subcategory, Count: count}
		}
	}
	return best, nil
}

func (m *memoryStore) addPattern(description, category, subcategory string, usage int, lastUsed time.Time) {
	m.patterns = append(m.patterns, model.LearnedPattern{
		ID:          int64(len(m.patterns) + 1),
		Description: description,
		Category:    category,
		Subcategory: subcategory,
		UsageCount:  usage,
		LastUsed:    lastUsed,
	})
}

func (m *memoryStore) addExpense(description, category, subcategory string) {
	m.expenses = append(m.expenses, model.Expense{
		Description: description,
		Category:    category,
		Subcategory: subcategory,
	})
}

func newTestSuggester(t *testing.T, store *memoryStore) *Suggester {
	t.Helper()
	s, err := NewSuggester(store)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestNewSuggester_NilStore(t *testing.T) {
	_, err := NewSuggester(nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestSuggest_ExactMatchWins(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	store.addPattern("starbucks", "Food", "Coffee", 1, base)
	store.addPattern("starbucks", "Food", "Dining", 3, base)
	store.addPattern("starbucks reserve", "Entertainment", "Treats", 10, base)
	store.addExpense("starbucks again", "Shopping", "Misc")

	s := newTestSuggester(t, store)
	got, err := s.Suggest(context.Background(), "  StarBucks ")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, SourceExact, got.Source)
	assert.Equal(t, "Dining", got.Subcategory)
	assert.InDelta(t, 1.0, got.Confidence, 0)
}

func TestSuggest_ExactTieBreaksOnRecency(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	store.addPattern("netflix", "Entertainment", "Streaming", 2, base)
	store.addPattern("netflix", "Bills", "Subscriptions", 2, base.Add(time.Hour))

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "netflix")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bills", got.Category)
}

func TestSuggest_FuzzyBelowThresholdFallsThrough(t *testing.T) {
	store := &memoryStore{}
	store.addPattern("grocery store", "Food", "Groceries", 1, time.Now())
	store.addPattern("electric bill", "Utilities", "Electric", 1, time.Now())

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "the grocery shop")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggest_FuzzyPrefersHigherUsage(t *testing.T) {
	now := time.Now()
	store := &memoryStore{}
	store.addPattern("coffee bar", "Food", "Cafe", 1, now)
	store.addPattern("coffee shop", "Food", "Coffee", 5, now)

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "coffee")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, SourceFuzzy, got.Source)
	assert.Equal(t, "Coffee", got.Subcategory)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
}

func TestSuggest_FuzzyConfidenceNotClamped(t *testing.T) {
	store := &memoryStore{}
	store.addPattern("starbucks coffee", "Food", "Coffee", 12, time.Now())

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "coffee starbucks")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SourceFuzzy, got.Source)
	assert.InDelta(t, 1.5, got.Confidence, 1e-9)
}

func TestSuggest_FuzzyTieKeepsEarlierPattern(t *testing.T) {
	now := time.Now()
	store := &memoryStore{}
	store.addPattern("gym monthly", "Health", "Gym", 2, now)
	store.addPattern("gym fee", "Health", "Fees", 2, now.Add(-time.Hour))

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "gym")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Gym", got.Subcategory)
}

func TestSuggest_KeywordSingleMatch(t *testing.T) {
	store := &memoryStore{}
	store.addExpense("Comcast internet March", "Utilities", "Internet")

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "comcast xfinity")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, SourceKeyword, got.Source)
	assert.Equal(t, model.CategoryPair{Category: "Utilities", Subcategory: "Internet"}, got.Pair())
	assert.InDelta(t, 0.55, got.Confidence, 1e-9)
}

func TestSuggest_KeywordConfidenceCapped(t *testing.T) {
	store := &memoryStore{}
	for i := 0; i < 12; i++ {
		store.addExpense("shell gas station", "Transport", "Fuel")
	}

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "shell")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestSuggest_KeywordSkipsStopWordsAndShortWords(t *testing.T) {
	store := &memoryStore{}
	store.addExpense("card payment at xy", "Misc", "Other")

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "card payment at xy")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggest_KeywordErrorSkipsWord(t *testing.T) {
	store := &memoryStore{keywordErr: map[string]error{"amazon": errors.New("boom")}}
	store.addExpense("amazon books", "Shopping", "Books")

	got, err := newTestSuggester(t, store).Suggest(context.Background(), "amazon books")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, got.Reason, `"books"`)
	assert.Equal(t, "Books", got.Subcategory)
}

func TestSuggest_KeywordStrictMaximum(t *testing.T) {
	store := &memoryStore{}
	store.addExpense("uber ride", "Transport", "Rideshare")
	store.addExpense("uber eats", "Food", "Delivery")
	store.addExpense("eats dinner", "Food", "Delivery")

	// "uber" ties Food/Delivery and Transport/Rideshare at 1 and resolves to
	// Food/Delivery alphabetically; "eats" then counts 2 for the same pair.
	got, err := newTestSuggester(t, store).Suggest(context.Background(), "uber eats")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Delivery", got.Subcategory)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestSuggest_Blank(t *testing.T) {
	got, err := newTestSuggester(t, &memoryStore{}).Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordMapping(t *testing.T) {
	store := &memoryStore{}
	s := newTestSuggester(t, store)
	ctx := context.Background()

	require.NoError(t, s.RecordMapping(ctx, "Whole Foods ", "Food", "Groceries"))
	require.NoError(t, s.RecordMapping(ctx, "whole foods", "Food", "Groceries"))

	require.Len(t, store.patterns, 1)
	assert.Equal(t, "whole foods", store.patterns[0].Description)
	assert.Equal(t, 2, store.patterns[0].UsageCount)

	got, err := s.Suggest(ctx, "WHOLE FOODS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SourceExact, got.Source)
}

func TestRecordMapping_BlankDescriptionIsNoop(t *testing.T) {
	store := &memoryStore{}
	s := newTestSuggester(t, store)

	require.NoError(t, s.RecordMapping(context.Background(), "  ", "Food", "Groceries"))
	assert.Zero(t, store.records)
}

func TestRecordMapping_RequiresPair(t *testing.T) {
	s := newTestSuggester(t, &memoryStore{})
	err := s.RecordMapping(context.Background(), "rent", "Housing", " ")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}
