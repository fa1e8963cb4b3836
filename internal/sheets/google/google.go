package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendlens/internal/core"
	"spendlens/internal/insights"
	ports "spendlens/internal/sheets"
)

var (
	_ ports.SummaryExporter = (*Client)(nil)
	_ ports.IngestionLogger = (*Client)(nil)
)

// Config names the target spreadsheet and how to authenticate.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	LogSheetName       string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client writes summaries to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logSheetName  string
	now           func() time.Time
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "SpendLens"
	}

	logSheet := strings.TrimSpace(cfg.LogSheetName)
	if logSheet == "" {
		logSheet = "Ingestions"
	}

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "sheet", sheet)
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
		logSheetName:  logSheet,
		now:           time.Now,
	}, nil
}

// credentials resolves inline JSON first, then a key file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportSummary replaces the sheet contents with the summary in columns A:B
// and the transactions from column D onwards.
func (c *Client) ExportSummary(ctx context.Context, s insights.Summary, txs []core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:I", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	summary := ports.SummaryValues(s, c.now())
	table := ports.TransactionValues(txs)

	batch := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*gsheet.ValueRange{
			{Range: fmt.Sprintf("%s!A1:B%d", c.sheetName, len(summary)), Values: summary},
			{Range: fmt.Sprintf("%s!D1:I%d", c.sheetName, len(table)), Values: table},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, batch).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write summary to %s: %w", c.sheetName, err)
	}

	ref := fmt.Sprintf("%s!A1:I%d", c.sheetName, max(len(summary), len(table)))
	slog.InfoContext(ctx, "Exported summary to Google Sheets",
		"ref", ref,
		"transactions", len(txs),
		"categories", len(s.ByCategory))
	return ref, nil
}

// AppendIngestion adds one row to the ingestion log sheet, writing the
// header first when the sheet is empty.
func (c *Client) AppendIngestion(ctx context.Context, ev ports.IngestionEvent) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := [][]any{ports.IngestionValues(ev)}
	header := fmt.Sprintf("%s!A1:I1", c.logSheetName)
	got, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, header).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", header, err)
	}
	if len(got.Values) == 0 {
		rows = append([][]any{ports.IngestionHeader}, rows...)
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.logSheetName+"!A:I", &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.logSheetName, err)
	}

	ref := c.logSheetName
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Logged ingestion to Google Sheets",
		"ref", ref,
		"entry", ev.Entry,
		"version", ev.Version)
	return ref, nil
}
