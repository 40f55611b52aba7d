// Package main provides the entrypoint for the landslide-risk dashboard gateway.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/api"
	"github.com/twostepahead/twostepahead/internal/api/handler"
	"github.com/twostepahead/twostepahead/internal/api/middleware"
	"github.com/twostepahead/twostepahead/internal/config"
	"github.com/twostepahead/twostepahead/internal/geocoding/nominatim"
	"github.com/twostepahead/twostepahead/internal/geospatial"
	"github.com/twostepahead/twostepahead/internal/prediction"
	"github.com/twostepahead/twostepahead/internal/provider/resilience"
	"github.com/twostepahead/twostepahead/internal/report"
	"github.com/twostepahead/twostepahead/internal/telemetry"
	"github.com/twostepahead/twostepahead/internal/weather"
	"github.com/twostepahead/twostepahead/internal/weather/openmeteo"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// reportGrace is added to the report timeout for the connection write deadline.
const reportGrace = 10 * time.Second

func main() {
	const serviceName = "twostepahead-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.App.Environment).
		Msg("starting landslide dashboard gateway")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Upstream clients share one health registry.
	registry := resilience.NewRegistry()
	onStateChange := resilience.LogStateChanges(log)
	newHTTPClient := func(rc resilience.ClientConfig, timeout time.Duration) *resilience.Client {
		if timeout > 0 {
			rc.Timeout = timeout
		}
		rc.Registry = registry
		rc.Metrics = providerMetrics
		if rc.CircuitBreaker != nil {
			rc.CircuitBreaker.OnStateChange = onStateChange
		}
		return resilience.NewClient(rc)
	}

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openmeteo.NewClient(openmeteo.ClientConfig{
			BaseURL:    cfg.Weather.URL,
			HTTPClient: newHTTPClient(openmeteo.DefaultHTTPConfig(), cfg.Weather.Timeout),
			Logger:     log,
		}),
		Logger: log,
	})

	geoClient := geospatial.NewClient(geospatial.ClientConfig{
		BaseURL:    cfg.Geospatial.URL,
		HTTPClient: newHTTPClient(geospatial.DefaultHTTPConfig(), cfg.Geospatial.Timeout),
		Logger:     log,
	})

	searchClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:      cfg.Nominatim.URL,
		UserAgent:    cfg.Nominatim.UserAgent,
		CountryCodes: cfg.Nominatim.CountryCodes,
		HTTPClient:   newHTTPClient(nominatim.DefaultHTTPConfig(), 0),
		Logger:       log,
	})

	predictor := prediction.NewClient(prediction.ClientConfig{
		BaseURL:    cfg.Inference.URL,
		HTTPClient: newHTTPClient(prediction.DefaultHTTPConfig(), cfg.Inference.Timeout),
		Logger:     log,
	})

	generator := report.NewGenerator(report.GeneratorConfig{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.URL,
		Model:      cfg.Gemini.Model,
		HTTPClient: newHTTPClient(report.DefaultHTTPConfig(), 0),
		Logger:     log,
	})

	features := []handler.Feature{
		{Name: "geospatial", Enabled: geoClient.Configured()},
		{Name: "prediction", Enabled: cfg.Inference.URL != ""},
		{Name: "report", Enabled: generator.Configured()},
	}
	for _, f := range features {
		if !f.Enabled {
			log.Warn().Str("feature", f.Name).Msg("feature not configured - endpoint will fail")
		}
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		RequireTLS:         cfg.HTTP.RequireTLS,
		Registry:           registry,
		Features:           features,
		Rainfall:           weatherService,
		Locations:          geoClient,
		Search:             searchClient,
		Predictor:          predictor,
		Reports:            generator,
		ReportTimeout:      report.DefaultTimeout + reportGrace,
	})

	// Create HTTP server. Report streams extend their own write deadline.
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("providers", registry.ProviderCount()).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
