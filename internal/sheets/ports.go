package sheets

import (
	"context"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/insights"
)

// SummaryExporter publishes the current aggregate view to an external
// spreadsheet. It returns a reference to the written range.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, s insights.Summary, txs []core.Transaction) (ref string, err error)
}

// IngestionEvent is one row of the ingestion log.
type IngestionEvent struct {
	At          time.Time
	Source      string
	Entry       string
	Rows        int
	Dropped     int
	Total       int
	Version     int64
	TotalSpend  string
	TotalIncome string
}

// IngestionLogger appends ingestion events to an audit sheet.
type IngestionLogger interface {
	AppendIngestion(ctx context.Context, ev IngestionEvent) (ref string, err error)
}
