package core

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
	"2006/01/02",
	"Jan 02, 2006 03:04 PM",
	"Jan 2, 2006",
	"Jan 02, 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses a statement date. Missing or unreadable values fall
// back to now, always returned in UTC.
func ParseDate(s string, now time.Time) time.Time {
	if ts, ok := parseDate(s); ok {
		return ts
	}
	return now.UTC()
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDate renders a date like "08 Jan 2025", or an em dash when
// the date is unknown.
func FormatDisplayDate(ts time.Time) string {
	if ts.IsZero() {
		return "—"
	}
	return ts.UTC().Format("02 Jan 2006")
}
