package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetector(t *testing.T) {
	tests := []struct {
		name        string
		patterns    []Pattern
		expectError bool
	}{
		{
			name:     "default patterns compile",
			patterns: DefaultTransferPatterns(),
		},
		{
			name:     "empty pattern list",
			patterns: nil,
		},
		{
			name:        "invalid regex",
			patterns:    []Pattern{{Name: "broken", Regex: `(unclosed`}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector, err := NewDetector(tt.patterns)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.patterns), detector.Len())
		})
	}
}

func TestDetector_Match(t *testing.T) {
	detector, err := NewDetector(DefaultTransferPatterns())
	require.NoError(t, err)

	tests := []struct {
		description string
		expected    string
		matched     bool
	}{
		{description: "ONLINE TRANSFER TO CHK 4455", expected: "Account Transfer", matched: true},
		{description: "Wire Transfer Out REF 991", expected: "Wire Transfer", matched: true},
		{description: "AUTOMATIC PAYMENT - THANK YOU", expected: "Credit Card Payment", matched: true},
		{description: "transfer to savings", expected: "Account Transfer", matched: true},
		{description: "ROTH CONTRIBUTION", expected: "Investment Transfer", matched: true},
		{description: "STARBUCKS STORE #1234", matched: false},
		{description: "MORTGAGE PMT", matched: false},
		{description: "", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			name, ok := detector.Match(tt.description)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestDetector_PriorityOrder(t *testing.T) {
	detector, err := NewDetector([]Pattern{
		{Name: "low", Regex: `coffee`, Priority: 1},
		{Name: "high", Regex: `coffee`, Priority: 10},
	})
	require.NoError(t, err)

	name, ok := detector.Match("COFFEE")
	require.True(t, ok)
	assert.Equal(t, "high", name)
}
