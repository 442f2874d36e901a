package pattern

import (
	"strings"
	"unicode/utf8"
)

const (
	// fuzzyThreshold is the score a fuzzy candidate must strictly exceed.
	fuzzyThreshold = 0.3
	// maxUsageBoost caps the usage multiplier applied to fuzzy scores.
	maxUsageBoost = 0.5
	// minKeywordLength is the shortest word, in runes, used for keyword search.
	minKeywordLength = 3
	// maxKeywordConfidence caps keyword suggestions below fuzzy and exact.
	maxKeywordConfidence = 0.9
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "for": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "of": {}, "by": {}, "with": {}, "from": {},
	"as": {}, "is": {}, "it": {}, "was": {}, "are": {}, "were": {}, "be": {},
	"been": {}, "payment": {}, "purchase": {}, "card": {}, "debit": {},
	"credit": {}, "pos": {}, "transaction": {},
}

// Normalize lowercases and trims a description. Stored patterns and lookups
// both go through it.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// wordSet splits on whitespace into a set of distinct words.
func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard is |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// usageBoost is the multiplier rewarding frequently used patterns.
func usageBoost(usageCount int) float64 {
	return 1 + min(float64(usageCount)/10, maxUsageBoost)
}

// keywordConfidence maps a match count onto [0.5, 0.9].
func keywordConfidence(count int) float64 {
	return min(0.5+float64(count)/20, maxKeywordConfidence)
}

// keywords returns the words of a normalized description worth searching
// for, in order of appearance and without repeats.
func keywords(normalized string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if utf8.RuneCountInString(w) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
