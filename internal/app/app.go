package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"sellerpulse/internal/config"
	"sellerpulse/internal/currency"
	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/infrastructure"
	customMiddleware "sellerpulse/internal/middleware"
	"sellerpulse/internal/products"
	"sellerpulse/internal/services"
	"sellerpulse/internal/storage"
	handlers "sellerpulse/internal/transport/http"
	"sellerpulse/pkg/contracts"
)

const (
	VERSION = contracts.Version
	AppName = "SellerPulse - Amazon Seller Analytics"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Store         storage.Store
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Ingest       *services.IngestService
	Reports      *services.ReportService
	Marketplaces *services.MarketplaceService
	Health       *services.HealthService
	Products     *products.Client
	Rates        *currency.Provider
	Metrics      *infrastructure.PipelineMetrics
}

// NewApplication loads configuration and logging from the environment and
// builds the application.
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
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("build_id", BuildID))

	return NewApplicationWithConfig(cfg, logger)
}

// NewApplicationWithConfig builds the application from an explicit
// configuration. It opens the store, so callers must Stop the application
// (or close Store) when done.
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry, VERSION), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.openStore(context.Background()); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		app.Store.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// openStore opens the SQLite store, creating its directory when needed
func (a *Application) openStore(ctx context.Context) error {
	path := a.Config.Storage.Path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
	}

	store, err := storage.OpenSQLite(ctx, path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = store
	return nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.NewPipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	productClient := products.NewClient(products.ClientConfig{
		URL:      a.Config.Products.URL,
		Timeout:  a.Config.Products.Timeout,
		CacheTTL: a.Config.Products.CacheTTL,
		Logger:   a.Logger,
	})

	// The store doubles as the last-known-good rate cache.
	rateProvider := currency.NewProvider(currency.ProviderConfig{
		URL:      a.Config.Currency.RatesURL,
		Timeout:  a.Config.Currency.Timeout,
		CacheTTL: a.Config.Currency.CacheTTL,
		Cache:    a.Store,
		Logger:   a.Logger,
	})

	ingest := services.NewIngestService(a.Store, a.Config.Ingest, metrics, a.Logger)
	reports := services.NewReportService(a.Store, productClient, rateProvider, a.Config.Analytics, metrics, a.Logger)
	marketplaces := services.NewMarketplaceService(a.Store, a.Logger)
	health := services.NewHealthService(VERSION, BuildTime, a.Store, a.Logger)

	// Any change to the stored transactions makes memoized reports stale.
	ingest.OnCommit(reports.Invalidate)
	marketplaces.OnDelete(reports.Invalidate)

	a.Services = &ServiceContainer{
		Ingest:       ingest,
		Reports:      reports,
		Marketplaces: marketplaces,
		Health:       health,
		Products:     productClient,
		Rates:        rateProvider,
		Metrics:      metrics,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
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

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/healthz", healthHandler.ReadinessCheck)

		a.setupAPIRoutes(r)
	})

	// Scrapes stay outside the middleware group
	r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidator()

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.Config.Server.ReadTimeout))

			healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
			r.Get("/version", healthHandler.Version)

			analyticsHandler := handlers.NewAnalyticsHandler(a.Services.Reports, validator, a.ErrorHandler, a.Logger)
			r.Mount("/analytics", analyticsHandler.Routes())
			r.Get("/rates", analyticsHandler.GetRates)

			marketplaceHandler := handlers.NewMarketplaceHandler(a.Services.Marketplaces, a.ErrorHandler, a.Logger)
			r.Mount("/marketplaces", marketplaceHandler.Routes())
		})

		// Uploads parse whole workbooks and get the write timeout
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.Config.Server.WriteTimeout))

			uploadHandler := handlers.NewUploadHandler(a.Services.Ingest, validator, a.ErrorHandler, a.Config.Server.MaxUploadBytes, a.Logger)
			r.Mount("/uploads", uploadHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: false,
		MaxAge:           300,
	}

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("storage", a.Config.Storage.Path),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
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

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing store", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the store answers and its directory
// is writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status != "ready" {
		warnings = append(warnings, "storage is not ready")
	}

	if path := a.Config.Storage.Path; path != ":memory:" {
		testFile := filepath.Join(filepath.Dir(path), ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("storage directory not writable: %s", filepath.Dir(path)))
		} else {
			os.Remove(testFile)
		}
	}

	if a.Config.Products.URL == "" {
		a.Logger.InfoContext(ctx, "Product service not configured, reports will omit product costs")
	}
	if a.Config.Currency.RatesURL == "" {
		a.Logger.InfoContext(ctx, "Exchange rate service not configured, using fallback rates")
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
