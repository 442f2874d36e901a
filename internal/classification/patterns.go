// Package classification recognizes statement lines that move money between
// the household's own accounts rather than spend it.
package classification

// Pattern is a named, case-insensitive regular expression. Patterns with a
// higher Priority are tried first.
type Pattern struct {
	Name     string
	Regex    string
	Priority int
}

// DefaultTransferPatterns returns the built-in transfer patterns.
func DefaultTransferPatterns() []Pattern {
	return []Pattern{
		{
			Name:     "Wire Transfer",
			Regex:    `\b(WIRE\s*IN|WIRE\s*OUT|WIRE\s*TRANSFER|WIRE\s*XFER)\b`,
			Priority: 85,
		},
		{
			Name:     "Account Transfer",
			Regex:    `\b(TRANSFER|XFER|TFR|MOVE\s*MONEY|ACCOUNT\s*TO\s*ACCOUNT)\b`,
			Priority: 80,
		},
		{
			Name:     "Investment Transfer",
			Regex:    `\b(401K|IRA|ROTH|BROKERAGE)\s*(CONTRIBUTION|TRANSFER|ROLLOVER)\b`,
			Priority: 80,
		},
		{
			Name:     "Savings Transfer",
			Regex:    `\b(TO\s*SAVINGS|FROM\s*SAVINGS|SAVINGS\s*TRANSFER)\b`,
			Priority: 75,
		},
		{
			Name:     "Credit Card Payment",
			Regex:    `\b(CC\s*PAYMENT|CREDIT\s*CARD\s*PAY|CARD\s*PAYMENT|PMT\s*TO|PAYMENT\s*-?\s*THANK\s*YOU)\b`,
			Priority: 75,
		},
	}
}
