package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []core.RawRow
	}{
		{
			name: "header is lower-cased and trimmed",
			text: " Date , MERCHANT ,Amount\n2025-01-08, Swiggy ,349",
			want: []core.RawRow{{"date": "2025-01-08", "merchant": "Swiggy", "amount": "349"}},
		},
		{
			name: "crlf line endings",
			text: "date,amount\r\n2025-01-08,349\r\n2025-01-07,10\r\n",
			want: []core.RawRow{
				{"date": "2025-01-08", "amount": "349"},
				{"date": "2025-01-07", "amount": "10"},
			},
		},
		{
			name: "short rows leave trailing columns absent",
			text: "date,merchant,category\n2025-01-08,Swiggy",
			want: []core.RawRow{{"date": "2025-01-08", "merchant": "Swiggy"}},
		},
		{
			name: "extra columns are ignored",
			text: "date\n2025-01-08,extra",
			want: []core.RawRow{{"date": "2025-01-08"}},
		},
		{
			name: "blank lines are skipped",
			text: "date,amount\n\n2025-01-08,1\n   \n\r\n2025-01-09,2\n\n\n",
			want: []core.RawRow{
				{"date": "2025-01-08", "amount": "1"},
				{"date": "2025-01-09", "amount": "2"},
			},
		},
		{
			name: "quoted fields may contain commas",
			text: "merchant,amount\n\"Amazon, Inc\",\"1,799\"",
			want: []core.RawRow{{"merchant": "Amazon, Inc", "amount": "1,799"}},
		},
		{
			name: "a line of empty fields still yields a row",
			text: "date,amount\n,\n2025-01-09,2",
			want: []core.RawRow{
				{"date": "", "amount": ""},
				{"date": "2025-01-09", "amount": "2"},
			},
		},
		{
			name: "stray quote stays within its line",
			text: "date,merchant,category,amount,type\n" +
				"2025-01-08,\"Big\" Bazaar,Groceries,1249,Debit\n" +
				"2025-01-07,Uber,Transport,189,Debit\n" +
				"2025-01-06,Swiggy,Food,349,Debit",
			want: []core.RawRow{
				{"date": "2025-01-08", "merchant": "\"Big\" Bazaar", "category": "Groceries", "amount": "1249", "type": "Debit"},
				{"date": "2025-01-07", "merchant": "Uber", "category": "Transport", "amount": "189", "type": "Debit"},
				{"date": "2025-01-06", "merchant": "Swiggy", "category": "Food", "amount": "349", "type": "Debit"},
			},
		},
		{
			name: "unclosed quote does not swallow later rows",
			text: "date,merchant,category,amount\n2025-01-08,\"Swiggy,Food,349\n2025-01-07,Uber,Transport,189",
			want: []core.RawRow{
				{"date": "2025-01-08", "merchant": "\"Swiggy", "category": "Food", "amount": "349"},
				{"date": "2025-01-07", "merchant": "Uber", "category": "Transport", "amount": "189"},
			},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "header only",
			text: "date,amount\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTable(tt.text))
		})
	}
}

func TestParseTable_SampleHasEightRows(t *testing.T) {
	rows := ParseTable(SampleCSV)
	require.Len(t, rows, 8)
	assert.Equal(t, "Swiggy", rows[0]["merchant"])
	assert.Equal(t, "Credit", rows[2]["type"])
}
