package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	return records
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with extractors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "info"},
			logger.WithWriter(&buf),
			logger.WithExtractors(logger.RequestID, logger.ContextAttrs, nil),
			logger.WithStatic(slog.String("service", "directory")),
		)

		ctx := logger.WithRequestID(context.Background(), "req-1")
		ctx = logger.WithAttrs(ctx, slog.String("namespace", "categories"))
		ctx = logger.WithAttrs(ctx, slog.Int("attempt", 2))
		log.InfoContext(ctx, "category created", slog.String("slug", "family-law"))

		records := decode(t, &buf)
		require.Len(t, records, 1)
		rec := records[0]
		assert.Equal(t, "category created", rec["msg"])
		assert.Equal(t, "family-law", rec["slug"])
		assert.Equal(t, "req-1", rec["request_id"])
		assert.Equal(t, "categories", rec["namespace"])
		assert.EqualValues(t, 2, rec["attempt"])
		assert.Equal(t, "directory", rec["service"])
	})

	t.Run("extractors skip missing values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{}, logger.WithWriter(&buf),
			logger.WithExtractors(logger.RequestID, logger.ContextAttrs))
		log.InfoContext(context.Background(), "hello")

		records := decode(t, &buf)
		require.Len(t, records, 1)
		assert.NotContains(t, records[0], "request_id")
	})

	t.Run("level filters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "warn"}, logger.WithWriter(&buf))
		log.Info("dropped")
		log.Warn("kept")

		records := decode(t, &buf)
		require.Len(t, records, 1)
		assert.Equal(t, "kept", records[0]["msg"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "loud"}, logger.WithWriter(&buf))
		log.Info("visible")

		records := decode(t, &buf)
		require.Len(t, records, 2)
		assert.Equal(t, "WARN", records[0]["level"])
		assert.Equal(t, "visible", records[1]["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Format: "text"}, logger.WithWriter(&buf))
		log.Info("plain", slog.String("k", "v"))
		assert.Contains(t, buf.String(), "msg=plain")
		assert.Contains(t, buf.String(), "k=v")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: " warning ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, logger.ErrUnknownLevel)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
