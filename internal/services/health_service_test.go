package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"procurement/internal/shared/testutil"
)

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.0", "", "", nil)

	resp := hs.HealthCheck(context.Background())

	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.0", resp.Version)
	assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Minute)
}

func TestLivenessCheck(t *testing.T) {
	status := NewHealthService("1.2.0", "", "", nil).LivenessCheck(context.Background())

	assert.Equal(t, StatusAlive, status.Status)
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Contains(t, status.Runtime, "uptime")
}

func TestReadinessCheck(t *testing.T) {
	t.Run("no checks is ready", func(t *testing.T) {
		resp := NewHealthService("v", "", "", nil).ReadinessCheck(context.Background())
		assert.Equal(t, StatusReady, resp.Status)
		assert.Empty(t, resp.Checks)
	})

	t.Run("all checks pass", func(t *testing.T) {
		hs := NewHealthService("v", "", "", nil)
		hs.AddCheck("row_source", func(ctx context.Context) error { return nil })
		hs.AddCheck("search", func(ctx context.Context) error { return nil })

		resp := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusReady, resp.Status)
		assert.Equal(t, map[string]string{"row_source": "ok", "search": "ok"}, resp.Checks)
	})

	t.Run("failing check", func(t *testing.T) {
		logger, handler := testutil.NewTestLogger(t)
		hs := NewHealthService("v", "", "", logger)
		hs.AddCheck("row_source", func(ctx context.Context) error { return errors.New("no spreadsheet id") })
		hs.AddCheck("search", func(ctx context.Context) error { return nil })

		resp := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, resp.Status)
		assert.Equal(t, "no spreadsheet id", resp.Checks["row_source"])
		assert.Equal(t, "ok", resp.Checks["search"])
		testutil.AssertLogAttr(t, handler, "check", "row_source")
	})

	t.Run("panicking check", func(t *testing.T) {
		hs := NewHealthService("v", "", "", nil)
		hs.AddCheck("bad", func(ctx context.Context) error { panic("nil source") })

		resp := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, resp.Status)
		assert.Equal(t, "check panicked: nil source", resp.Checks["bad"])
	})

	t.Run("slow check times out", func(t *testing.T) {
		hs := NewHealthService("v", "", "", nil)
		hs.SetCheckTimeout(20 * time.Millisecond)
		hs.AddCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		resp := hs.ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, resp.Status)
		assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"])
	})
}

func TestVersion(t *testing.T) {
	info := NewHealthService("1.2.0", "2025-06-30T12:00:00Z", "abc123", nil).Version()

	assert.Equal(t, "1.2.0", info["version"])
	assert.Equal(t, "2025-06-30T12:00:00Z", info["build_time"])
	assert.Equal(t, "abc123", info["build_id"])

	bare := NewHealthService("1.2.0", "", "", nil).Version()
	assert.NotContains(t, bare, "build_time")
}
