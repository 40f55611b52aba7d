// Package api provides the HTTP API for the landslide-risk dashboard gateway.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/api/handler"
	"github.com/twostepahead/twostepahead/internal/api/middleware"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// CORSAllowedOrigins lists the dashboard origins. Empty allows any.
	CORSAllowedOrigins []string
	RequireTLS         bool

	// Registry and Features feed the ops status endpoint.
	Registry *resilience.Registry
	Features []handler.Feature

	Rainfall  handler.RainfallService
	Locations handler.LocationDataSource
	Search    handler.LocationSearcher
	Predictor handler.Predictor
	Reports   handler.ReportStreamer

	// ReportTimeout is the write deadline for one streamed report.
	ReportTimeout time.Duration
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "twostepahead-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))           // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))         // Panic recovery
	r.Use(chimiddleware.RealIP)                    // Real IP extraction
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins)) // Browser dashboard
	r.Use(middleware.SecurityHeaders)              // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))   // TLS enforcement

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not allowed on "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Features...)
	weatherHandler := handler.NewWeatherHandler(cfg.Rainfall)
	locationHandler := handler.NewLocationHandler(cfg.Locations)
	searchHandler := handler.NewSearchHandler(cfg.Search)
	predictHandler := handler.NewPredictHandler(cfg.Predictor, cfg.Logger)
	reportHandler := handler.NewReportHandler(cfg.Reports, cfg.ReportTimeout, cfg.Logger)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.With(standardRateLimit).Get("/weather", weatherHandler.GetWeather)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/get_weather", weatherHandler.GetWeather)
			r.Get("/get_location_data", locationHandler.GetLocationData)
			r.Get("/search_locations", searchHandler.SearchLocations)
		})

		// Inference and text generation calls
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/predict", predictHandler.Predict)
			r.Post("/generate_report", reportHandler.GenerateReport)
		})
	})

	return r
}
