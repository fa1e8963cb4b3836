package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount keeps only digits, dots and minus signs from s and parses
// the rest. Anything that still does not parse yields zero.
func ParseAmount(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatINR renders an amount as whole rupees with Indian digit grouping,
// e.g. "₹1,00,000".
func FormatINR(d decimal.Decimal) string {
	rounded := d.Round(0)
	neg := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("₹")
	b.WriteString(groupIndian(digits))
	return b.String()
}

// groupIndian inserts separators after the last three digits and then
// after every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
