package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" }, "/healthz")

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "upstream-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 65))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, strings.HasPrefix(seen, "req_"), "oversized upstream ids are replaced")

	metrics := m.GetMetrics()
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Zero(t, metrics.ClientErrors)
	assert.GreaterOrEqual(t, metrics.AverageMicros(), int64(0))
}

func TestMiddleware_CountsFailures(t *testing.T) {
	m := NewMiddleware(nil)
	status := http.StatusNotFound
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	status = http.StatusBadGateway
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/export", nil))

	metrics := m.GetMetrics()
	assert.Equal(t, int64(1), metrics.ClientErrors)
	assert.Equal(t, int64(1), metrics.ServerErrors)
	assert.Zero(t, Metrics{}.AverageMicros())
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("req_")+16)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}
