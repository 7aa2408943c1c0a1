package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

type corsConfig struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	maxAge           time.Duration
	allowCredentials bool
}

// CORSOption configures CORS.
type CORSOption func(*corsConfig)

// WithAllowOrigins sets the allowed origins. "*" allows any origin.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(c *corsConfig) {
		c.allowOrigins = origins
	}
}

// WithAllowCredentials echoes the caller's origin and allows cookies.
func WithAllowCredentials() CORSOption {
	return func(c *corsConfig) {
		c.allowCredentials = true
	}
}

// WithExposeHeaders lists response headers readable by the browser.
func WithExposeHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) {
		c.exposeHeaders = headers
	}
}

// CORS answers preflight requests and adds CORS headers for allowed origins.
// Requests from other origins pass through without CORS headers.
func CORS(opts ...CORSOption) func(http.Handler) http.Handler {
	cfg := &corsConfig{
		allowOrigins:  []string{"*"},
		allowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		allowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		exposeHeaders: []string{"X-Request-ID"},
		maxAge:        DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	methods := strings.Join(cfg.allowMethods, ", ")
	headers := strings.Join(cfg.allowHeaders, ", ")
	expose := strings.Join(cfg.exposeHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))
	wildcard := slices.Contains(cfg.allowOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!wildcard && !slices.Contains(cfg.allowOrigins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if cfg.allowCredentials || !wildcard {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.allowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if cfg.maxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
