// Package middlewares provides the net/http middlewares of the directory API.
//
//	r := chi.NewRouter()
//	r.Use(
//		middlewares.RequestID(),
//		middlewares.Logger(log),
//		middlewares.Recover(log),
//		middlewares.Timeout(15*time.Second),
//		middlewares.MaxBodySize(1<<20),
//		middlewares.CORS(middlewares.WithAllowOrigins("https://example.com")),
//	)
//
// RequestID must run first so later records carry the request ID through
// logger.RequestID. Recover and MaxBodySize answer with the same
// {"error": "..."} body as the API handlers.
package middlewares
