package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of the process
type RuntimeStats struct {
	Goroutines  int64         `json:"goroutines"`
	HeapBytes   int64         `json:"heap_bytes"`
	SystemBytes int64         `json:"system_bytes"`
	GCCount     uint32        `json:"gc_count"`
	Uptime      time.Duration `json:"uptime"`
}

// ReadRuntimeStats reads the Go runtime counters
func ReadRuntimeStats(start time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:  int64(runtime.NumGoroutine()),
		HeapBytes:   int64(mem.HeapAlloc),
		SystemBytes: int64(mem.Sys),
		GCCount:     mem.NumGC,
		Uptime:      time.Since(start),
	}
}

// RegisterRuntimeMetrics publishes process gauges that are read on every
// collection. Unregister the returned registration on shutdown.
func RegisterRuntimeMetrics(meter metric.Meter, start time.Time) (metric.Registration, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"process_goroutines",
		metric.WithDescription("Number of live goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("goroutine gauge: %w", err)
	}

	heap, err := meter.Int64ObservableGauge(
		"process_heap_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("heap gauge: %w", err)
	}

	system, err := meter.Int64ObservableGauge(
		"process_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("system memory gauge: %w", err)
	}

	gcCount, err := meter.Int64ObservableCounter(
		"process_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("gc counter: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"process_uptime_seconds",
		metric.WithDescription("Seconds since the server started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("uptime gauge: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := ReadRuntimeStats(start)
		o.ObserveInt64(goroutines, stats.Goroutines)
		o.ObserveInt64(heap, stats.HeapBytes)
		o.ObserveInt64(system, stats.SystemBytes)
		o.ObserveInt64(gcCount, int64(stats.GCCount))
		o.ObserveFloat64(uptime, stats.Uptime.Seconds())
		return nil
	}, goroutines, heap, system, gcCount, uptime)
}
