package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Component: component, Handler: NewHandler(buf, "json", slog.LevelDebug)})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentApp).WithComponent(ComponentIngest)

	logger.Info("Statement ingested", FieldRows, 8)

	assert.Contains(t, buf.String(), `"component":"ingest"`)
	assert.Contains(t, buf.String(), `"rows":8`)
	assert.Equal(t, ComponentIngest, logger.Component())
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentHTTP)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("handled")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), `"request_id":"req_abc"`)
}

func TestFromContextFallback(t *testing.T) {
	logger := FromContext(context.Background())
	assert.Equal(t, "unknown", logger.Component())
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(bufferLogger(&buf, ComponentHTTP))

	sl.LogError(context.Background(), "Upload failed", errors.New("disk full"), ComponentHTTP, OpIngest,
		NewFields().WithUpload("jan.zip", 512).WithClientIP("10.0.0.1"))

	out := buf.String()
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"operation":"ingest"`)
	assert.Contains(t, out, `"filename":"jan.zip"`)
	assert.Contains(t, out, `"bytes":512`)
	assert.Contains(t, out, `"client_ip":"10.0.0.1"`)
}
