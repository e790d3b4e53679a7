package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"procurement/internal/analysis"
	"procurement/internal/config"
	apierrors "procurement/internal/errors"
	"procurement/internal/infrastructure"
	customMiddleware "procurement/internal/middleware"
	"procurement/internal/search"
	"procurement/internal/services"
	"procurement/internal/source"
	handlers "procurement/internal/transport/http"
	"procurement/pkg/contracts/domain"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.BusinessMetrics
	Source          source.RowSource
	Lookup          search.Lookup
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
	ErrorHandler    *apierrors.ErrorHandler

	runtimeMetrics metric.Registration
}

// Option overrides a collaborator the application would otherwise build
// from configuration
type Option func(*Application)

// WithLogger injects the application logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithSource injects the row source
func WithSource(src source.RowSource) Option {
	return func(a *Application) { a.Source = src }
}

// WithLookup injects the outsourcing lookup
func WithLookup(l search.Lookup) Option {
	return func(a *Application) { a.Lookup = l }
}

// NewApplication loads configuration and the logger, then builds the
// application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("target_period", targetPeriod(cfg).String()),
		slog.String("source", cfg.Source.Kind))

	return New(cfg, WithLogger(logger))
}

// New builds the application from an already loaded configuration
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	a := &Application{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, false)
	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices wires the row source, lookup, engine and services
func (a *Application) initializeServices() error {
	meter := a.OTelProviders.Meter
	if meter == nil {
		meter = otel.Meter(infrastructure.MeterName)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	if a.OTelProviders.Meter != nil {
		reg, err := infrastructure.RegisterRuntimeMetrics(meter, time.Now())
		if err != nil {
			return fmt.Errorf("failed to register runtime metrics: %w", err)
		}
		a.runtimeMetrics = reg
	}

	if a.Source == nil {
		src, err := source.New(context.Background(), a.Config)
		if err != nil {
			return fmt.Errorf("failed to create row source: %w", err)
		}
		a.Source = src
	}

	if a.Lookup == nil {
		a.Lookup = search.NewFromConfig(a.Config.Search, a.Logger, a.Metrics)
	}

	engine := analysis.NewEngine(
		analysis.Options{
			Target: targetPeriod(a.Config),
			Thresholds: analysis.Thresholds{
				Deviation: a.Config.Analysis.DeviationThreshold,
				Spike:     a.Config.Analysis.SpikeThreshold,
			},
			MaxLookups: a.Config.Analysis.MaxOutsourcingLookups,
		},
		analysis.WithLookup(a.Lookup),
		analysis.WithLogger(infrastructure.WithComponent(a.Logger, "analysis_engine")),
	)

	a.AnalysisService = services.NewAnalysisService(a.Source, engine, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer),
	)

	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, BuildID, a.Logger)
	a.HealthService.AddCheck("row_source", a.checkSource)
	a.HealthService.AddCheck("search", a.checkSearch)

	return nil
}

func targetPeriod(cfg *config.Config) domain.Period {
	return domain.Period{Year: cfg.Analysis.TargetYear, Month: cfg.Analysis.TargetMonth}
}

// checkSource verifies the row source is configured without fetching it
func (a *Application) checkSource(ctx context.Context) error {
	switch a.Config.Source.Kind {
	case config.SourceSheets:
		if a.Config.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("%w: spreadsheet id is empty", source.ErrNotConfigured)
		}
		return nil
	case config.SourceXLSX, config.SourceCSV:
		if _, err := os.Stat(a.Config.Source.Path); err != nil {
			return fmt.Errorf("%s source: %w", a.Config.Source.Kind, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", source.ErrNotConfigured, a.Config.Source.Kind)
	}
}

// checkSearch verifies the lookup endpoint is usable. A disabled lookup is
// ready; runs simply produce no Outsourcing opportunities.
func (a *Application) checkSearch(ctx context.Context) error {
	if !a.Lookup.Enabled() {
		return nil
	}
	u, err := url.Parse(a.Config.Search.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid search base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid search base url scheme %q", u.Scheme)
	}
	return nil
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Prometheus scrape endpoint lives outside /api
	handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler).Routes(r)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Health checks answer quickly
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
			handlers.NewHealthHandler(a.HealthService, a.Logger).Routes(r)
		})

		// Analysis runs may wait on the rate-limited lookup
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.AnalysisTimeout, a.Logger))
			handlers.NewAnalysisHandler(a.AnalysisService, a.Logger, a.ErrorHandler).Routes(r)
		})
	})
}

// getCORSConfig builds the CORS settings. The default origin list is "*".
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	a.Logger.Debug("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server in the background. A listen failure calls
// cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("source", a.Source.Name()),
		slog.Bool("search_enabled", a.Lookup.Enabled()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.runtimeMetrics != nil {
		_ = a.runtimeMetrics.Unregister()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck runs the readiness checks once and reports
// failures as warnings; the server keeps running either way
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	resp := a.HealthService.ReadinessCheck(ctx)
	if resp.Status == services.StatusReady {
		a.Logger.InfoContext(ctx, "Startup health check passed")
		return nil
	}

	var failed []error
	for name, status := range resp.Checks {
		if status != "ok" {
			failed = append(failed, fmt.Errorf("%s: %s", name, status))
		}
	}
	return errors.Join(failed...)
}
