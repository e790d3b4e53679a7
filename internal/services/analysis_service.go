package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"procurement/internal/analysis"
	"procurement/internal/infrastructure"
	"procurement/internal/source"
	"procurement/pkg/contracts/domain"
)

// Analyzer runs the opportunity pipeline over a fetched table
type Analyzer interface {
	Run(ctx context.Context, table *domain.Table, mode domain.AnalysisMode) (*domain.AnalysisResult, error)
	Target() domain.Period
}

// AnalysisService fetches the dataset and runs the engine over it. It keeps
// no state between runs.
type AnalysisService struct {
	source  source.RowSource
	engine  Analyzer
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// AnalysisServiceOption customizes an AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithMetrics records runs and source fetches
func WithMetrics(m *infrastructure.BusinessMetrics) AnalysisServiceOption {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(src source.RowSource, engine Analyzer, logger *slog.Logger, opts ...AnalysisServiceOption) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &AnalysisService{
		source: src,
		engine: engine,
		tracer: otel.Tracer(infrastructure.MeterName),
		logger: logger.With(slog.String("service", "analysis")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceName identifies the configured row source
func (s *AnalysisService) SourceName() string {
	return s.source.Name()
}

// RunAnalysis fetches all rows and runs the engine in the given mode. A run
// that cannot be anchored to the target period returns the failed result
// together with ErrAnalysisConfiguration.
func (s *AnalysisService) RunAnalysis(ctx context.Context, mode domain.AnalysisMode) (*domain.AnalysisResult, error) {
	if mode == "" {
		mode = domain.AnalysisModeFull
	}

	ctx, span := s.tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(
			attribute.String("analysis.mode", string(mode)),
			attribute.String("analysis.target_period", s.engine.Target().String()),
			attribute.String("analysis.source", s.source.Name()),
		))
	defer span.End()

	start := time.Now()

	if !mode.IsValid() {
		err := ErrInvalidMode.Wrap(fmt.Errorf("%q is not one of full, insourcing, outsourcing", mode))
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	table, err := s.fetch(ctx)
	if err != nil {
		s.metrics.RecordAnalysisRun(ctx, mode, string(domain.AnalysisStatusFailed), time.Since(start), nil)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	result, err := s.engine.Run(ctx, table, mode)
	if err != nil {
		s.metrics.RecordAnalysisRun(ctx, mode, string(domain.AnalysisStatusFailed), time.Since(start), nil)
		infrastructure.RecordError(ctx, err)

		switch {
		case errors.Is(err, analysis.ErrConfiguration) && result != nil:
			s.logger.WarnContext(ctx, "analysis could not be anchored",
				slog.String("target_period", s.engine.Target().String()),
				slog.String("error", err.Error()))
			return result, ErrAnalysisConfiguration.Wrap(err).WithContext("result", result)
		case errors.Is(err, analysis.ErrInvalidMode):
			return nil, ErrInvalidMode.Wrap(err)
		default:
			s.metrics.RecordSystemError(ctx, "analysis")
			return nil, fmt.Errorf("analysis failed: %w", err)
		}
	}

	duration := time.Since(start)
	s.metrics.RecordAnalysisRun(ctx, mode, string(result.Status), duration, result)
	span.SetAttributes(
		attribute.String("analysis.run_id", result.RunID),
		attribute.Int("analysis.opportunities", result.Counts.Total),
	)

	s.logger.InfoContext(ctx, "analysis run finished",
		slog.String("run_id", result.RunID),
		slog.String("mode", string(mode)),
		slog.Int("rows", table.Len()),
		slog.Int("renegotiation", result.Counts.Renegotiation),
		slog.Int("insourcing", result.Counts.Insourcing),
		slog.Int("outsourcing", result.Counts.Outsourcing),
		slog.Float64("total_potential_savings", result.TotalPotentialSavings),
		slog.Duration("duration", duration))

	return result, nil
}

// GetPart returns the raw row of a part, matched case-insensitively
func (s *AnalysisService) GetPart(ctx context.Context, partNumber string) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.get_part")
	defer span.End()

	table, err := s.fetch(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	row, ok := analysis.FindPart(table, partNumber)
	if !ok {
		return nil, ErrPartNotFound.
			Wrap(fmt.Errorf("no row with part number %q", partNumber)).
			WithContext("part_number", partNumber)
	}
	return row, nil
}

// DescribeColumns reports how the source's headers are classified for the
// engine's target period
func (s *AnalysisService) DescribeColumns(ctx context.Context) (*analysis.ColumnReport, error) {
	table, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	report := analysis.DescribeColumns(table.Headers, s.engine.Target())
	return &report, nil
}

// fetch reads the whole dataset. An empty dataset is ErrNoData.
func (s *AnalysisService) fetch(ctx context.Context) (*domain.Table, error) {
	start := time.Now()
	table, err := s.source.FetchRows(ctx)
	s.metrics.RecordSourceFetch(ctx, s.source.Name(), time.Since(start), err)

	if err != nil {
		s.logger.ErrorContext(ctx, "row source fetch failed",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()))
		return nil, ErrSourceUnavailable.Wrap(err)
	}
	if table.Len() == 0 {
		return nil, ErrNoData.Wrap(fmt.Errorf("source %s returned no rows", s.source.Name()))
	}

	s.logger.DebugContext(ctx, "rows fetched",
		slog.String("source", s.source.Name()),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Headers)))
	return table, nil
}
