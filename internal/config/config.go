// Package config loads gateway configuration from defaults, an optional .env
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the complete gateway configuration.
type Config struct {
	App        AppConfig        `koanf:"app"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Weather    WeatherConfig    `koanf:"weather"`
	Geospatial GeospatialConfig `koanf:"geospatial"`
	Nominatim  NominatimConfig  `koanf:"nominatim"`
	Inference  InferenceConfig  `koanf:"inference"`
	Gemini     GeminiConfig     `koanf:"gemini"`
	HTTP       HTTPConfig       `koanf:"http"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Port        string `koanf:"port" validate:"required,numeric"`
	Environment string `koanf:"environment" validate:"required"`
	LogLevel    string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint" validate:"required_if=Enabled true"`
	SampleRatio  float64 `koanf:"sample_ratio" validate:"gte=0,lte=1"`
}

// WeatherConfig configures the hourly weather collaborator.
type WeatherConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// GeospatialConfig configures the slope/soil lookup service. An empty URL
// disables the lookup endpoint.
type GeospatialConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// NominatimConfig configures location search.
type NominatimConfig struct {
	URL          string `koanf:"url" validate:"required,url"`
	UserAgent    string `koanf:"user_agent" validate:"required"`
	CountryCodes string `koanf:"country_codes"`
}

// InferenceConfig configures the remote landslide model.
type InferenceConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// GeminiConfig configures report generation. An empty API key disables it.
type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	URL    string `koanf:"url" validate:"required,url"`
	Model  string `koanf:"model" validate:"required"`
}

// HTTPConfig holds inbound HTTP settings.
type HTTPConfig struct {
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"min=1"`
	RequireTLS         bool     `koanf:"require_tls"`
}

// IsProduction reports whether the gateway runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Port:        "8080",
			Environment: "development",
			LogLevel:    "info",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		Weather: WeatherConfig{
			URL:     "https://api.open-meteo.com/v1",
			Timeout: 10 * time.Second,
		},
		Geospatial: GeospatialConfig{
			Timeout: 15 * time.Second,
		},
		Nominatim: NominatimConfig{
			URL:          "https://nominatim.openstreetmap.org",
			UserAgent:    "Two-Step-Ahead landslide dashboard",
			CountryCodes: "PH",
		},
		Inference: InferenceConfig{
			Timeout: 15 * time.Second,
		},
		Gemini: GeminiConfig{
			URL:   "https://generativelanguage.googleapis.com/v1beta",
			Model: "gemini-2.5-flash",
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: []string{"*"},
		},
	}
}

// envKeys maps environment variables to configuration paths. Variables not
// listed are ignored.
var envKeys = map[string]string{
	"APP_PORT":                    "app.port",
	"APP_ENV":                     "app.environment",
	"LOG_LEVEL":                   "app.log_level",
	"OTEL_ENABLED":                "telemetry.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "telemetry.otlp_endpoint",
	"OTEL_TRACES_SAMPLER_ARG":     "telemetry.sample_ratio",
	"WEATHER_API_URL":             "weather.url",
	"WEATHER_TIMEOUT":             "weather.timeout",
	"GEOSPATIAL_API_URL":          "geospatial.url",
	"GEOSPATIAL_TIMEOUT":          "geospatial.timeout",
	"NOMINATIM_API_URL":           "nominatim.url",
	"NOMINATIM_USER_AGENT":        "nominatim.user_agent",
	"NOMINATIM_COUNTRY_CODES":     "nominatim.country_codes",
	"INFERENCE_API_URL":           "inference.url",
	"INFERENCE_TIMEOUT":           "inference.timeout",
	"GEMINI_API_KEY":              "gemini.api_key",
	"GEMINI_API_URL":              "gemini.url",
	"GEMINI_MODEL":                "gemini.model",
	"CORS_ALLOWED_ORIGINS":        "http.cors_allowed_origins",
	"REQUIRE_TLS":                 "http.require_tls",
}

// sliceKeys are configuration paths given as comma-separated lists.
var sliceKeys = []string{"http.cors_allowed_origins"}

var validate = validator.New()

// Load reads the optional dotenv files, then builds the configuration from
// defaults overridden by the environment and validates it.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// godotenv does not override variables already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitLists(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// envTransform maps a known environment variable to its configuration path.
// Returning "" makes koanf skip the variable.
func envTransform(key string) string {
	return envKeys[strings.ToUpper(key)]
}

func splitLists(k *koanf.Koanf) error {
	for _, path := range sliceKeys {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		var items []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
