package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		wantFirst string
		wantLast  string
		year      int
		month     time.Month
	}{
		{name: "thirty one days", year: 2025, month: time.March, wantFirst: "2025-03-01", wantLast: "2025-03-31"},
		{name: "leap february", year: 2024, month: time.February, wantFirst: "2024-02-01", wantLast: "2024-02-29"},
		{name: "plain february", year: 2025, month: time.February, wantFirst: "2025-02-01", wantLast: "2025-02-28"},
		{name: "december", year: 2024, month: time.December, wantFirst: "2024-12-01", wantLast: "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := MonthRange(tt.year, tt.month)
			assert.Equal(t, tt.wantFirst, first.Format("2006-01-02"))
			assert.Equal(t, tt.wantLast, last.Format("2006-01-02"))
		})
	}
}

func TestPreviousMonth(t *testing.T) {
	year, month := PreviousMonth(2025, time.January)
	assert.Equal(t, 2024, year)
	assert.Equal(t, time.December, month)

	year, month = PreviousMonth(2025, time.July)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.June, month)
}

func TestParseMonth(t *testing.T) {
	year, month, err := ParseMonth("2025-03")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.March, month)

	for _, bad := range []string{"2025-13", "03-2025", "2025/03", ""} {
		_, _, err := ParseMonth(bad)
		assert.ErrorIs(t, err, ErrInvalidMonth, bad)
	}
}
