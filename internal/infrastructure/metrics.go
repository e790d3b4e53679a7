package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"procurement/pkg/contracts/domain"
)

// BusinessMetrics holds all application-specific metrics. A nil
// *BusinessMetrics records nothing.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Analysis metrics
	AnalysisRunsTotal     metric.Int64Counter
	AnalysisRunDuration   metric.Float64Histogram
	AnalysisOpportunities metric.Int64Counter

	// Collaborator metrics
	OutsourcingLookups        metric.Int64Counter
	OutsourcingLookupDuration metric.Float64Histogram
	SourceFetchDuration       metric.Float64Histogram

	// System metrics
	SystemErrors metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisRunsTotal, err = meter.Int64Counter(
		"analysis_runs_total",
		metric.WithDescription("Total number of analysis runs by mode and status"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisRunDuration, err = meter.Float64Histogram(
		"analysis_run_duration_seconds",
		metric.WithDescription("Analysis run duration in seconds, source fetch included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisOpportunities, err = meter.Int64Counter(
		"analysis_opportunities_total",
		metric.WithDescription("Total number of opportunities emitted by type"),
	); err != nil {
		return nil, err
	}

	if m.OutsourcingLookups, err = meter.Int64Counter(
		"outsourcing_lookups_total",
		metric.WithDescription("Total number of external supplier lookups by outcome"),
	); err != nil {
		return nil, err
	}

	if m.OutsourcingLookupDuration, err = meter.Float64Histogram(
		"outsourcing_lookup_duration_seconds",
		metric.WithDescription("External supplier lookup duration in seconds, rate-limit wait included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.SourceFetchDuration, err = meter.Float64Histogram(
		"source_fetch_duration_seconds",
		metric.WithDescription("Row source fetch duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.SystemErrors, err = meter.Int64Counter(
		"system_errors_total",
		metric.WithDescription("Total number of system errors"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordAnalysisRun records one finished run. result may be nil when the run
// failed before producing one.
func (m *BusinessMetrics) RecordAnalysisRun(ctx context.Context, mode domain.AnalysisMode, status string, duration time.Duration, result *domain.AnalysisResult) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("status", status),
	)
	m.AnalysisRunsTotal.Add(ctx, 1, attrs)
	m.AnalysisRunDuration.Record(ctx, duration.Seconds(), attrs)

	if result == nil {
		return
	}
	for typ, n := range map[domain.OpportunityType]int{
		domain.OpportunityRenegotiation: result.Counts.Renegotiation,
		domain.OpportunityInsourcing:    result.Counts.Insourcing,
		domain.OpportunityOutsourcing:   result.Counts.Outsourcing,
	} {
		if n > 0 {
			m.AnalysisOpportunities.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", string(typ))))
		}
	}
}

// RecordSourceFetch records the duration of a row source fetch
func (m *BusinessMetrics) RecordSourceFetch(ctx context.Context, source string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SourceFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

// RecordLookup records one outsourcing lookup outcome
func (m *BusinessMetrics) RecordLookup(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.OutsourcingLookups.Add(ctx, 1, attrs)
	m.OutsourcingLookupDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSystemError counts an unexpected failure
func (m *BusinessMetrics) RecordSystemError(ctx context.Context, component string) {
	if m == nil {
		return
	}
	m.SystemErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
