package http

import (
	"strings"

	"spendlens/internal/core"
	"spendlens/internal/insights"
)

// formatSignedAmount renders a table amount: credits as "+₹2,000", debits as
// "-₹349". The sign comes from the type, so the magnitude is used.
func formatSignedAmount(tx core.Transaction) string {
	sign := "-"
	if tx.IsCredit() {
		sign = "+"
	}
	return sign + core.FormatINR(tx.Amount.Abs())
}

// queryFromValues reads the q and category parameters.
func queryFromValues(get func(string) string) insights.Query {
	return insights.Query{
		Text:     sanitizeInput(get("q")),
		Category: sanitizeInput(get("category")),
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
