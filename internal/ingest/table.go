package ingest

import (
	"encoding/csv"
	"strings"

	"spendlens/internal/core"
)

// ParseTable reads comma separated text whose first line is the header.
// Header names are trimmed and lower-cased, values are trimmed, and columns
// missing from a short row are left out of that row. Lines holding only
// whitespace are skipped; a line of empty fields still yields a row.
//
// Each line is parsed on its own, so a quote never spans lines. Quoted
// fields may contain commas; a line whose quoting is malformed is split on
// every comma instead.
func ParseTable(text string) []core.RawRow {
	var (
		header []string
		rows   []core.RawRow
	)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		if header == nil {
			header = make([]string, len(fields))
			for i, h := range fields {
				header[i] = strings.ToLower(strings.TrimSpace(h))
			}
			continue
		}
		row := make(core.RawRow, len(header))
		for i, h := range header {
			if i >= len(fields) {
				break
			}
			row[h] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// splitLine parses one line as a CSV record, falling back to a plain comma
// split when the line is not valid CSV.
func splitLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}
