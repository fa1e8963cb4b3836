package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendlens/internal/log"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/middleware/security"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/services"
	appweb "spendlens/web"
)

// Options tune the HTTP surface.
type Options struct {
	// MaxUploadBytes caps a statement upload, multipart overhead included.
	MaxUploadBytes int64
	// RateLimitPerMinute applies to state-changing endpoints only.
	RateLimitPerMinute int
	// TrustedProxies extend the networks whose forwarding headers are honored.
	TrustedProxies []string
	Logger         *log.Logger
}

// DefaultOptions mirror the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes:     10 << 20,
		RateLimitPerMinute: 30,
	}
}

type Server struct {
	http.Server
	templates  *template.Template
	statements *services.StatementService
	logger     *log.Logger
	structured *log.StructuredLogger
	maxUpload  int64
	started    time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server. Templates are parsed up front so a broken template fails startup.
func NewServer(addr string, statements *services.StatementService, opts Options) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = DefaultOptions().RateLimitPerMinute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	s := &Server{
		templates:        t,
		statements:       statements,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		maxUpload:        opts.MaxUploadBytes,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			s.rateLimiter.Stop()
			return nil, err
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, "/healthz", "/readyz", "/metrics")

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/insights", s.handleInsightsPartial)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactionsPartial)
	mux.Handle("POST /statements", limited(http.HandlerFunc(s.handleUploadStatement)))
	mux.Handle("POST /sample", limited(http.HandlerFunc(s.handleLoadSample)))
	mux.Handle("POST /export", limited(http.HandlerFunc(s.handleExport)))

	mux.HandleFunc("GET /api/summary", s.handleAPISummary)
	mux.HandleFunc("GET /api/transactions", s.handleAPITransactions)
	mux.Handle("POST /api/statements", limited(http.HandlerFunc(s.handleAPIUploadStatement)))
	mux.Handle("DELETE /api/transactions", limited(http.HandlerFunc(s.handleAPIReset)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("GET /static/", http.StripPrefix("/static/",
		security.StaticAssetMiddleware(3600)(http.FileServerFS(static))))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorNotice(http.StatusTooManyRequests, "Too many requests. Please wait a minute and try again.").Write(w)
}

// render executes a named template into a buffer first so a template error
// never produces a half-written page. b carries status and triggers; nil
// means a plain 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if b == nil {
		b = NewHTMXResponse()
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.LogFields{"template": name})
		InternalServerError("Something went wrong while rendering the page.").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}
