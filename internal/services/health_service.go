package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"procurement/internal/infrastructure"
	api "procurement/pkg/contracts/api/v1"
)

const (
	StatusHealthy  = "healthy"
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"

	checkOK = "ok"
)

// DefaultCheckTimeout bounds each readiness check
const DefaultCheckTimeout = 5 * time.Second

// CheckFunc reports whether a dependency is usable
type CheckFunc func(ctx context.Context) error

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	startTime time.Time
	timeout   time.Duration
	logger    *slog.Logger

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// HealthStatus represents the liveness response with runtime details
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, buildTime, buildID string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		startTime: time.Now(),
		timeout:   DefaultCheckTimeout,
		logger:    logger.With(slog.String("service", "health")),
		checks:    make(map[string]CheckFunc),
	}
}

// AddCheck registers a named readiness check. A later check with the same
// name replaces the earlier one.
func (hs *HealthService) AddCheck(name string, check CheckFunc) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.checks[name] = check
}

// SetCheckTimeout changes the per-check timeout
func (hs *HealthService) SetCheckTimeout(d time.Duration) {
	if d > 0 {
		hs.timeout = d
	}
}

// HealthCheck is the liveness check: the process answers, nothing else is
// consulted
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	return api.HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status with runtime details
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.ReadRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     stats.Uptime.Seconds(),
			"go_version": runtime.Version(),
			"goroutines": stats.Goroutines,
			"heap_mb":    stats.HeapBytes / 1024 / 1024,
			"gc_count":   stats.GCCount,
		},
	}
}

// ReadinessCheck runs every registered check concurrently. All checks run
// to completion; the service is ready only when every one passes.
func (hs *HealthService) ReadinessCheck(ctx context.Context) api.ReadinessResponse {
	hs.mu.RLock()
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(hs.checks))
	for k, v := range hs.checks {
		checks[k] = v
	}
	hs.mu.RUnlock()
	sort.Strings(names)

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(names))
		g       errgroup.Group
	)
	for _, name := range names {
		name, check := name, checks[name]
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, hs.timeout)
			defer cancel()

			status := checkOK
			if err := runCheck(cctx, check); err != nil {
				status = err.Error()
				hs.logger.WarnContext(ctx, "readiness check failed",
					slog.String("check", name),
					slog.String("error", err.Error()))
			}

			mu.Lock()
			results[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := api.ReadinessResponse{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
	for _, status := range results {
		if status != checkOK {
			resp.Status = StatusNotReady
			break
		}
	}
	return resp
}

// runCheck converts a panicking check into a failure
func runCheck(ctx context.Context, check CheckFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return check(ctx)
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}
