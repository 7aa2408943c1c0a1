package middlewares

import "net/http"

// DefaultMaxBodySize is the body limit used when MaxBodySize gets a
// non-positive size.
const DefaultMaxBodySize int64 = 1 << 20

// MaxBodySize rejects bodies larger than limit with 413. A declared
// Content-Length over the limit is rejected before the handler runs; other
// bodies are cut off by http.MaxBytesReader and fail to decode.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
