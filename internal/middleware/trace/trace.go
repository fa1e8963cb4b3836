// Package trace tags each request with an id and logs its start and
// completion.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"spendlens/internal/log"
)

// HeaderRequestID carries the request id in and out of the server.
const HeaderRequestID = "X-Request-ID"

const maxUpstreamIDLen = 64

type requestIDKey struct{}

// Metrics are cumulative since start-up.
type Metrics struct {
	TotalRequests int64
	ClientErrors  int64
	ServerErrors  int64
	// TotalMicros is the summed handling time of all requests.
	TotalMicros int64
}

// AverageMicros is the mean handling time, zero before the first request.
func (m Metrics) AverageMicros() int64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return m.TotalMicros / m.TotalRequests
}

type Middleware struct {
	extractIP func(*http.Request) string
	quiet     map[string]bool

	total, clientErrs, serverErrs, micros atomic.Int64
}

// NewMiddleware returns a tracer. Requests to quietPaths are logged at
// debug level unless they fail.
func NewMiddleware(extractIP func(*http.Request) string, quietPaths ...string) *Middleware {
	m := &Middleware{extractIP: extractIP, quiet: make(map[string]bool, len(quietPaths))}
	for _, p := range quietPaths {
		m.quiet[p] = true
	}
	return m
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxUpstreamIDLen {
			id = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		r = r.WithContext(ctx)

		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		level := slog.LevelInfo
		if m.quiet[r.URL.Path] {
			level = slog.LevelDebug
		}
		common := []any{
			log.FieldRequestID, id,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
		}
		slog.Log(ctx, level, "HTTP request started", append(common,
			log.FieldQuery, r.URL.RawQuery,
			log.FieldUserAgent, r.UserAgent(),
			log.FieldReferer, r.Referer(),
			"content_length", r.ContentLength)...)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		m.total.Add(1)
		m.micros.Add(elapsed.Microseconds())
		switch {
		case sw.status >= 500:
			m.serverErrs.Add(1)
			level = slog.LevelError
		case sw.status >= 400:
			m.clientErrs.Add(1)
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "HTTP request completed", append(common,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds())...)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID returns "req_" followed by 16 random hex digits.
func GenerateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// GetRequestID returns the id attached by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: m.total.Load(),
		ClientErrors:  m.clientErrs.Load(),
		ServerErrors:  m.serverErrs.Load(),
		TotalMicros:   m.micros.Load(),
	}
}
