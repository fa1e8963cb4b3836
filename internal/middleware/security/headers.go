package security

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig lists the response headers set on every request. Headers
// with an empty value are skipped.
type HeadersConfig struct {
	Headers map[string]string
	// HSTSMaxAge is in seconds. Strict-Transport-Security is only sent over
	// TLS and only when this is positive.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
}

// dashboardCSP allows htmx from its CDN. Charts are inline SVG, so images
// need only self and data URIs.
var dashboardCSP = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' https://unpkg.com",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data:",
	"connect-src 'self'",
	"object-src 'none'",
	"frame-ancestors 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}, "; ")

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		Headers: map[string]string{
			"Content-Security-Policy":      dashboardCSP,
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
			// Cross-Origin-Embedder-Policy stays unset or the CDN script is blocked.
		},
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,
	}
}

type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{static: make(http.Header, len(cfg.Headers))}
	for name, value := range cfg.Headers {
		if value != "" {
			h.static.Set(name, value)
		}
	}
	if cfg.HSTSMaxAge > 0 {
		parts := []string{"max-age=" + strconv.Itoa(cfg.HSTSMaxAge)}
		if cfg.HSTSIncludeSubdomains {
			parts = append(parts, "includeSubDomains")
		}
		if cfg.HSTSPreload {
			parts = append(parts, "preload")
		}
		h.hsts = strings.Join(parts, "; ")
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, values := range h.static {
			out[name] = values
		}
		if r.TLS != nil && h.hsts != "" {
			out.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks responses cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(maxAge) + ", immutable"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", cacheControl)
			}
			next.ServeHTTP(w, r)
		})
	}
}
