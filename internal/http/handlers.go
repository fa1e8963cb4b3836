package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.statements.Ready(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.statements.ExportEnabled() {
		checks["sheets_export"] = "configured"
	} else {
		checks["sheets_export"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	stats := s.statements.Stats()
	views := s.statements.Views()
	hits, misses := views.Stats()

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_microseconds_avg", "gauge", "Mean time to handle a request", traceMetrics.AverageMicros())

	metric("statements_ingested_total", "counter", "Statements merged into the collection", stats.Ingestions)
	metric("statements_rejected_total", "counter", "Uploads rejected as invalid input", stats.Rejections)
	metric("statements_failed_total", "counter", "Uploads that failed while reading or storing", stats.Failures)
	metric("transactions_ingested_total", "counter", "Transactions added by merges", stats.RowsIngested)
	metric("ingest_events_publish_errors_total", "counter", "Ingestion events that could not be published", stats.PublishErrors)

	metric("view_cache_entries", "gauge", "Cached filtered transaction views", int64(views.Size()))
	metric("view_cache_hits_total", "counter", "Filtered view cache hits", hits)
	metric("view_cache_misses_total", "counter", "Filtered view cache misses", misses)

	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", limitMetrics.Rejected)
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", limitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests flagged as scanner traffic", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP process_uptime_seconds Seconds since the server started\n")
	fmt.Fprintf(w, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(w, "process_uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
