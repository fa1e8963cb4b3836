package http

import (
	"context"
	"net/http"

	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/log"
)

type (
	insightsView struct {
		TotalSpend  string
		TotalIncome string
		AvgSpend    string
		Count       int
		Chart       chartView
		Categories  []categoryBar
	}

	filterView struct {
		Text       string
		Categories []string
		Selected   string
		// OOB marks the select for an htmx out-of-band swap.
		OOB bool
	}

	txRow struct {
		Date     string
		Merchant string
		Category string
		Amount   string
		Type     string
		Credit   bool
	}

	tableView struct {
		Rows  []txRow
		Total int
	}

	pageView struct {
		Insights      insightsView
		Filters       filterView
		Table         tableView
		ExportEnabled bool
	}

	insightsPartialView struct {
		Insights insightsView
		Filters  filterView
	}
)

func newInsightsView(s insights.Summary) insightsView {
	return insightsView{
		TotalSpend:  core.FormatINR(s.TotalSpend),
		TotalIncome: core.FormatINR(s.TotalIncome),
		AvgSpend:    core.FormatINR(s.AvgSpend),
		Count:       s.Count,
		Chart:       buildChart(s.ByDay),
		Categories:  buildCategoryBars(s.ByCategory),
	}
}

func newTableView(txs []core.Transaction) tableView {
	rows := make([]txRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, txRow{
			Date:     core.FormatDisplayDate(tx.Date),
			Merchant: tx.Merchant,
			Category: tx.Category,
			Amount:   formatSignedAmount(tx),
			Type:     tx.Type,
			Credit:   tx.IsCredit(),
		})
	}
	return tableView{Rows: rows, Total: len(rows)}
}

func (s *Server) filterView(ctx context.Context, q insights.Query) (filterView, error) {
	cats, err := s.statements.Categories(ctx)
	if err != nil {
		return filterView{}, err
	}
	selected := q.Category
	if selected == "" {
		selected = insights.AllCategories
	}
	return filterView{Text: q.Text, Categories: cats, Selected: selected}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queryFromValues(r.URL.Query().Get)

	summary, err := s.statements.Summary(ctx)
	if err != nil {
		s.failLoad(w, r, err)
		return
	}
	filters, err := s.filterView(ctx, q)
	if err != nil {
		s.failLoad(w, r, err)
		return
	}
	txs, err := s.statements.Transactions(ctx, q)
	if err != nil {
		s.failLoad(w, r, err)
		return
	}

	s.render(w, r, nil, "index.html", pageView{
		Insights:      newInsightsView(summary),
		Filters:       filters,
		Table:         newTableView(txs),
		ExportEnabled: s.statements.ExportEnabled(),
	})
}

// handleInsightsPartial re-renders the stat cards, chart and category list.
// The category filter is refreshed out of band since new uploads can add
// categories; the current filter values arrive as query parameters.
func (s *Server) handleInsightsPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.statements.Summary(ctx)
	if err != nil {
		s.failLoad(w, r, err)
		return
	}
	filters, err := s.filterView(ctx, queryFromValues(r.URL.Query().Get))
	if err != nil {
		s.failLoad(w, r, err)
		return
	}
	filters.OOB = true

	s.render(w, r, nil, "insights_partial", insightsPartialView{
		Insights: newInsightsView(summary),
		Filters:  filters,
	})
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	q := queryFromValues(r.URL.Query().Get)
	txs, err := s.statements.Transactions(r.Context(), q)
	if err != nil {
		s.failLoad(w, r, err)
		return
	}
	s.render(w, r, nil, "transactions", newTableView(txs))
}

func (s *Server) failLoad(w http.ResponseWriter, r *http.Request, err error) {
	s.structured.LogError(r.Context(), "Failed to load transactions", err, log.ComponentHTTP, log.OpSummary,
		log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
			WithClientIP(s.securityDetector.ExtractClientIP(r)))
	InternalServerError("Could not load transactions. Please try again.").Write(w)
}
