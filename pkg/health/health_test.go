package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/health"
)

func ok(context.Context) error { return nil }

func TestChecker_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, health.StatusHealthy, health.New().Run(ctx).Status)
	})

	t.Run("all healthy", func(t *testing.T) {
		t.Parallel()

		c := health.New(health.WithCheck("database", ok))
		c.Add("redis", ok)

		report := c.Run(ctx)
		assert.Equal(t, health.StatusHealthy, report.Status)
		assert.Len(t, report.Checks, 2)
		assert.Equal(t, []string{"database", "redis"}, c.Names())
	})

	t.Run("one failing", func(t *testing.T) {
		t.Parallel()

		c := health.New(
			health.WithCheck("database", ok),
			health.WithCheck("redis", func(context.Context) error { return errors.New("refused") }),
		)

		report := c.Run(ctx)
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, health.StatusHealthy, report.Checks["database"].Status)
		assert.Equal(t, "refused", report.Checks["redis"].Error)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		c := health.New(
			health.WithTimeout(10*time.Millisecond),
			health.WithCheck("slow", func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}),
		)

		report := c.Run(ctx)
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Contains(t, report.Checks["slow"].Error, health.ErrCheckTimeout.Error())
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.Live()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ready reports failures", func(t *testing.T) {
		t.Parallel()

		c := health.New(health.WithCheck("database", func(context.Context) error { return errors.New("down") }))
		rec := httptest.NewRecorder()
		c.Ready()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var report health.Report
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, "down", report.Checks["database"].Error)
	})
}
