// Package budget reconciles monthly spending against budget estimates.
package budget

import (
	"errors"
	"fmt"
	"time"
)

// MonthLayout is the format accepted by ParseMonth.
const MonthLayout = "2006-01"

// ErrInvalidMonth is returned for months outside 1..12 or malformed input.
var ErrInvalidMonth = errors.New("invalid month")

// MonthRange returns the first and last calendar day of a month, both
// inclusive, at midnight UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// PreviousMonth steps back one month, wrapping January to December of the
// previous year.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidMonth, s)
	}
	return t.Year(), t.Month(), nil
}

func validateMonth(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidMonth, year)
	}
	return nil
}
