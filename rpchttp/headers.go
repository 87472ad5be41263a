package rpchttp

import (
	"net/http"
	"strconv"
	"strings"
)

// Headers is a middleware setting security headers suited to an RPC API,
// and optionally CORS headers for browser clients.
//
// Defaults from NewHeaders:
//   - X-Content-Type-Options: nosniff
//   - X-Frame-Options: DENY
//   - Referrer-Policy: no-referrer
//   - Content-Security-Policy: default-src 'none'; frame-ancestors 'none'
//   - Cross-Origin-Resource-Policy: same-origin
//   - Cache-Control: no-store
type Headers struct {
	ContentTypeOptions        bool
	FrameOptions              string
	ReferrerPolicy            string
	ContentSecurityPolicy     string
	CrossOriginResourcePolicy string
	CacheControl              string

	// CORS is nil unless cross-origin calls are allowed.
	CORS *CORSConfig
}

// CORSConfig configures Cross-Origin Resource Sharing.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the endpoint. "*" allows
	// any origin, but never together with AllowCredentials.
	AllowedOrigins []string

	// AllowedHeaders defaults to Content-Type and Authorization.
	AllowedHeaders []string

	ExposedHeaders   []string
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// HeadersOption configures Headers.
type HeadersOption func(*Headers)

// NewHeaders creates a Headers middleware with API defaults.
func NewHeaders(opts ...HeadersOption) *Headers {
	h := &Headers{
		ContentTypeOptions:        true,
		FrameOptions:              "DENY",
		ReferrerPolicy:            "no-referrer",
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
		CrossOriginResourcePolicy: "same-origin",
		CacheControl:              "no-store",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithCORS allows cross-origin calls from origins.
func WithCORS(origins ...string) HeadersOption {
	return func(h *Headers) {
		h.CORS = &CORSConfig{
			AllowedOrigins: origins,
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         3600,
		}
		// Cross-origin reads must not be blocked by CORP.
		h.CrossOriginResourcePolicy = "cross-origin"
	}
}

// WithCORSConfig sets the full CORS configuration.
func WithCORSConfig(config *CORSConfig) HeadersOption {
	return func(h *Headers) {
		h.CORS = config
	}
}

// Process implements Middleware.
func (h *Headers) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	header := w.Header()
	if h.ContentTypeOptions {
		header.Set("X-Content-Type-Options", "nosniff")
	}
	setIf(header, "X-Frame-Options", h.FrameOptions)
	setIf(header, "Referrer-Policy", h.ReferrerPolicy)
	setIf(header, "Content-Security-Policy", h.ContentSecurityPolicy)
	setIf(header, "Cross-Origin-Resource-Policy", h.CrossOriginResourcePolicy)
	setIf(header, "Cache-Control", h.CacheControl)

	if h.CORS != nil {
		setCORSHeaders(w, r, h.CORS)

		// Preflight: OPTIONS with Origin and Access-Control-Request-Method.
		if r.Method == http.MethodOptions &&
			r.Header.Get("Origin") != "" &&
			r.Header.Get("Access-Control-Request-Method") != "" {
			return Error(http.StatusNoContent, "", nil)
		}
	}

	return next(w, r)
}

func setIf(header http.Header, key, value string) {
	if value != "" {
		header.Set(key, value)
	}
}

// setCORSHeaders only acts on cross-origin requests, i.e. those with an
// Origin header.
func setCORSHeaders(w http.ResponseWriter, r *http.Request, config *CORSConfig) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	header := w.Header()
	header.Add("Vary", "Origin")

	allowed := ""
	for _, o := range config.AllowedOrigins {
		if o == "*" && !config.AllowCredentials {
			allowed = "*"
			break
		}
		if o == origin {
			allowed = origin
			break
		}
	}
	if allowed == "" {
		return
	}
	header.Set("Access-Control-Allow-Origin", allowed)

	if config.AllowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	if len(config.ExposedHeaders) > 0 {
		header.Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
	}

	if r.Method == http.MethodOptions {
		header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if len(config.AllowedHeaders) > 0 {
			header.Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
		}
		if config.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
	}
}

var _ Middleware = (*Headers)(nil)
