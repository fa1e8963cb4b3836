package sheets

import (
	"time"

	"spendlens/internal/core"
	"spendlens/internal/insights"
)

// SummaryValues lays out a summary as spreadsheet rows: a metrics block,
// the category breakdown and the daily series, separated by blank rows.
func SummaryValues(s insights.Summary, generatedAt time.Time) [][]any {
	rows := [][]any{
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Total Spend", s.TotalSpend.InexactFloat64()},
		{"Total Income", s.TotalIncome.InexactFloat64()},
		{"Transactions", s.Count},
		{"Avg Spend", s.AvgSpend.Round(2).InexactFloat64()},
		{},
		{"Category", "Spend"},
	}
	for _, c := range s.ByCategory {
		rows = append(rows, []any{c.Category, c.Amount.InexactFloat64()})
	}
	rows = append(rows, []any{}, []any{"Day", "Spend"})
	for _, d := range s.ByDay {
		rows = append(rows, []any{d.Day, d.Amount.InexactFloat64()})
	}
	return rows
}

// TransactionValues renders the collection with a header row.
func TransactionValues(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, []any{"Date", "Merchant", "Category", "Amount", "Type", "ID"})
	for _, tx := range txs {
		rows = append(rows, []any{tx.DayKey(), tx.Merchant, tx.Category, tx.Amount.InexactFloat64(), tx.Type, tx.ID})
	}
	return rows
}

// IngestionHeader names the ingestion log columns.
var IngestionHeader = []any{"At", "Source", "Entry", "Rows", "Dropped", "Total", "Version", "Total Spend", "Total Income"}

func IngestionValues(ev IngestionEvent) []any {
	return []any{
		ev.At.UTC().Format(time.RFC3339),
		ev.Source,
		ev.Entry,
		ev.Rows,
		ev.Dropped,
		ev.Total,
		ev.Version,
		ev.TotalSpend,
		ev.TotalIncome,
	}
}
