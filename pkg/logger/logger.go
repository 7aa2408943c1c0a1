package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

type options struct {
	out        io.Writer
	extractors []ContextExtractor
	attrs      []slog.Attr
}

// Option configures New.
type Option func(*options)

// WithWriter sets the destination for local output. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithExtractors adds context extractors applied to every record.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithStatic adds attributes to every record, e.g. the service name.
func WithStatic(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config, opts ...Option) *slog.Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	level, levelErr := ParseLevel(cfg.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var local slog.Handler
	if cfg.Format == "text" {
		local = slog.NewTextHandler(o.out, handlerOpts)
	} else {
		local = slog.NewJSONHandler(o.out, handlerOpts)
	}

	handler := local
	if cfg.SentryDSN != "" {
		if sh, err := newSentryHandler(cfg); err != nil {
			slog.New(local).Error("sentry disabled", slog.String("error", err.Error()))
		} else {
			handler = fanout{local, sh}
		}
	}

	handler = newContextHandler(handler, o.extractors)
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	log := slog.New(handler)
	if levelErr != nil {
		log.Warn("invalid log level, using info", slog.String("error", levelErr.Error()))
	}
	return log
}

// NewNope returns a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Flush waits up to timeout for buffered Sentry events to be sent.
// It is a no-op when Sentry was never initialized.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

func newSentryHandler(cfg Config) (slog.Handler, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		return nil, err
	}

	floor, err := ParseLevel(cfg.SentryLevel)
	if err != nil {
		floor = slog.LevelWarn
	}

	var logLevels []slog.Level
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l >= floor {
			logLevels = append(logLevels, l)
		}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background()), nil
}
