// Package logger builds the structured slog loggers used by the directory services.
//
// Records are written as JSON (or text, for local runs) and can be mirrored to Sentry.
// Request-scoped values are attached by context extractors, which run on every log call:
//
//	log := logger.New(cfg, logger.WithExtractors(logger.RequestID, logger.ContextAttrs))
//
//	ctx = logger.WithRequestID(ctx, "01JA2Y7W8K4M9QFZ3XG6T1B0RC")
//	ctx = logger.WithAttrs(ctx, slog.String("namespace", "categories"))
//	log.InfoContext(ctx, "category created", slog.String("slug", "family-law"))
//	// {"level":"INFO","msg":"category created","slug":"family-law",
//	//  "request_id":"01JA2Y7W8K4M9QFZ3XG6T1B0RC","namespace":"categories"}
//
// # Sentry
//
// When Config.SentryDSN is set, records at or above Config.SentryLevel are forwarded to
// Sentry as logs and errors become Sentry issues. An empty DSN, or a failed SDK init,
// leaves stdout logging in place. Call Flush before the process exits.
//
// # Defaults
//
// NewNope returns a logger that discards everything. Libraries in this module default to
// it so that logging is opt-in.
package logger
