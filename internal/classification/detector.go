package classification

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

type compiledPattern struct {
	regex *regexp.Regexp
	Pattern
}

// Detector matches descriptions against patterns in priority order.
// It is safe for concurrent use.
type Detector struct {
	patterns []compiledPattern
}

// NewDetector compiles patterns. Matching is case-insensitive.
func NewDetector(patterns []Pattern) (*Detector, error) {
	compiled := make([]compiledPattern, 0, len(patterns))

	for _, p := range patterns {
		expr := p.Regex
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}

		regex, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, compiledPattern{Pattern: p, regex: regex})
	}

	slices.SortStableFunc(compiled, func(a, b compiledPattern) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	return &Detector{patterns: compiled}, nil
}

// Match returns the name of the first pattern matching description.
func (d *Detector) Match(description string) (string, bool) {
	for _, p := range d.patterns {
		if p.regex.MatchString(description) {
			return p.Name, true
		}
	}
	return "", false
}

// Len returns the number of loaded patterns.
func (d *Detector) Len() int {
	return len(d.patterns)
}
