package middlewares

import (
	"net/http"

	"github.com/dmitrymomot/directory/pkg/id"
	"github.com/dmitrymomot/directory/pkg/logger"
)

const maxRequestIDLength = 128

// DefaultRequestIDHeaders are checked in order for an upstream request ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

type requestIDConfig struct {
	generator      func() string
	responseHeader string
	headers        []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeaders replaces the headers checked for an upstream ID.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.headers = headers
	}
}

// WithRequestIDGenerator replaces the ULID generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if gen != nil {
			c.generator = gen
		}
	}
}

// RequestID reuses a well formed upstream request ID or generates one, stores it
// with logger.WithRequestID and echoes it in the X-Request-ID response header.
func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	cfg := &requestIDConfig{
		generator:      id.NewULID,
		responseHeader: "X-Request-ID",
		headers:        DefaultRequestIDHeaders,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var reqID string
			for _, h := range cfg.headers {
				if v := r.Header.Get(h); validRequestID(v) {
					reqID = v
					break
				}
			}
			if reqID == "" {
				reqID = cfg.generator()
			}

			w.Header().Set(cfg.responseHeader, reqID)
			next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), reqID)))
		})
	}
}

func validRequestID(v string) bool {
	if v == "" || len(v) > maxRequestIDLength {
		return false
	}
	for i := range len(v) {
		if c := v[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
