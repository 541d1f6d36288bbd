package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"gradegraph/internal/cache"
	"gradegraph/internal/config"
	"gradegraph/internal/dataprocessing"
	apierrors "gradegraph/internal/errors"
	"gradegraph/internal/exporter"
	"gradegraph/internal/infrastructure"
	customMiddleware "gradegraph/internal/middleware"
	"gradegraph/internal/services"
	"gradegraph/internal/store"
	handlers "gradegraph/internal/transport/http"
	"gradegraph/internal/validation"
	"gradegraph/pkg/contracts"
)

// AppName is reported in startup logs.
const AppName = "GradeGraph Student Performance Analyzer"

// multipartOverhead is added to the upload limit so form boundaries and
// headers do not trip MaxBodySize before the file size check runs.
const multipartOverhead = 1 << 20

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Uploads       *cache.UploadCache
	History       store.History
	Services      *ServiceContainer
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis *services.AnalysisService
	Health   *services.HealthService
}

// NewApplication loads configuration, initializes the global logger and
// wires every component. A nil cfg loads the configuration from disk and
// the environment.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	// Relative log files live in the logs directory.
	logging := cfg.Logging
	if !filepath.IsAbs(logging.FilePath) {
		logging.FilePath = paths.GetLogPath(filepath.Base(logging.FilePath))
	}
	logger, err := infrastructure.InitializeLogger(logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, paths, logger)
}

// New wires the application from explicit dependencies.
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	history, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	a.History = history

	a.Uploads = cache.NewUploadCache(a.Config.Cache.TTL, a.Config.Cache.MaxEntries)

	analysis := services.NewAnalysisService(
		validation.NewFileValidator(a.Config.MaxUploadBytes(), a.Logger),
		dataprocessing.NewProcessor(a.Config.Policy(), a.Logger),
		a.Uploads,
		a.History,
		exporter.NewExporter(a.Paths, a.Logger),
		services.AnalysisOptions{
			Sheet:          a.Config.Upload.Sheet,
			HeaderScanRows: a.Config.Upload.HeaderScanRows,
			KeepPrevious:   a.Config.Cache.KeepPrevious,
			HistoryLimit:   a.Config.Store.HistoryLimit,
		},
		a.Logger,
	)
	analysis.SetMetrics(a.Metrics)

	a.Services = &ServiceContainer{
		Analysis: analysis,
		Health:   services.NewHealthService(a.Uploads, a.History, a.Paths, a.Logger),
	}
	return nil
}

func (a *Application) openHistory(ctx context.Context) (store.History, error) {
	if !a.Config.Store.Enabled {
		a.Logger.Info("Upload history disabled")
		return store.NopHistory{}, nil
	}

	driver := store.Driver(a.Config.Store.Driver)
	dsn := a.Config.Store.DSN
	if dsn == "" && driver == store.DriverSQLite {
		dsn = a.Paths.SQLiteDSN()
	}

	history, err := store.OpenSQLStore(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s history store: %w", driver, err)
	}
	a.Logger.Info("Upload history store opened", slog.String("driver", string(driver)))
	return history, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Prometheus scrapes skip tracing and rate limits.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		if a.Config.Server.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))
		}
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidator(a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(a.Services.Analysis, validator, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Mount(config.HealthEndpoint, healthHandler.Routes())

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Mount(config.HealthEndpoint, healthHandler.Routes())
		r.With(customMiddleware.MaxBodySize(a.Config.MaxUploadBytes()+multipartOverhead)).
			Mount(config.UploadsEndpoint, analysisHandler.Routes())
	})
}

// setupHTMLRoutes serves the landing page
func (a *Application) setupHTMLRoutes(r chi.Router) {
	htmlHandler := handlers.NewHTMLHandler(a.Paths.WebDir, a.Logger)
	r.Get("/", htmlHandler.Index)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if a.Config.Logging.Development {
		origins = append(append([]string(nil), origins...),
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	}
	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves HTTP until the server is shut down. It returns nil after a
// graceful Stop.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if a.Uploads != nil {
		a.Uploads.Stop()
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history store close error: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Received shutdown signal")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// performStartupHealthCheck verifies the working directories are writable.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Exports": a.Paths.ExportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	var warnings []string
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
