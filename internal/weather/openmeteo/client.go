// Package openmeteo fetches hourly precipitation and soil moisture from the
// Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/provider/resilience"
	"github.com/twostepahead/twostepahead/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	// PrecipitationUnit is the unit requested for precipitation. The values
	// are reported downstream under the rainfall keys without conversion.
	PrecipitationUnit = "inch"

	hourlyFields = "precipitation,soil_moisture_27_to_81cm"
	dateLayout   = "2006-01-02"
	timeLayout   = "2006-01-02T15:04"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with a 10s timeout and no retries.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client. It implements weather.Provider.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(DefaultHTTPConfig())
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// DefaultHTTPConfig is the transport policy for the weather collaborator:
// one attempt, 10s timeout.
func DefaultHTTPConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.Timeout = DefaultTimeout
	cfg.MaxRetries = 0
	return cfg
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetHourly fetches hourly observations for the dates spanned by start and end.
// Transport failures wrap weather.ErrProviderUnavailable; undecodable payloads
// wrap weather.ErrMalformedResponse.
func (c *Client) GetHourly(ctx context.Context, lat, lon float64, start, end time.Time) (*weather.HourlySeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.forecastURL(lat, lon, start, end), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", weather.ErrProviderUnavailable, resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", weather.ErrMalformedResponse, err)
	}

	series, err := toSeries(&fr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrMalformedResponse, err)
	}

	c.logger.Debug().
		Str("timezone", fr.Timezone).
		Int("observations", len(series.Observations)).
		Msg("fetched hourly weather")

	return series, nil
}

func (c *Client) forecastURL(lat, lon float64, start, end time.Time) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", hourlyFields)
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("timezone", "auto")
	q.Set("forecast_days", "0")
	q.Set("precipitation_unit", PrecipitationUnit)
	return c.baseURL + "/forecast?" + q.Encode()
}

// toSeries converts the parallel hourly arrays into observations in the
// location's reported zone. Null values become 0.
func toSeries(fr *forecastResponse) (*weather.HourlySeries, error) {
	h := fr.Hourly
	if h.Time == nil {
		return nil, errors.New("missing hourly.time")
	}
	if len(h.Precipitation) != len(h.Time) || len(h.SoilMoisture) != len(h.Time) {
		return nil, fmt.Errorf("hourly arrays differ in length: time=%d precipitation=%d soil_moisture=%d",
			len(h.Time), len(h.Precipitation), len(h.SoilMoisture))
	}

	loc := zoneFor(fr.Timezone, fr.UTCOffsetSeconds)
	observations := make([]weather.HourlyObservation, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(timeLayout, raw, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing hourly.time[%d]: %w", i, err)
		}
		observations[i] = weather.HourlyObservation{
			Time:          ts,
			Precipitation: valueOrZero(h.Precipitation[i]),
			SoilMoisture:  valueOrZero(h.SoilMoisture[i]),
		}
	}

	return &weather.HourlySeries{
		Lat:          fr.Latitude,
		Lon:          fr.Longitude,
		Location:     loc,
		Observations: observations,
	}, nil
}

func zoneFor(name string, offsetSeconds int) *time.Location {
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, offsetSeconds)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// forecastResponse represents the Open-Meteo forecast API response.
type forecastResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Timezone         string  `json:"timezone"`
	Hourly           struct {
		Time          []string   `json:"time"`
		Precipitation []*float64 `json:"precipitation"`
		SoilMoisture  []*float64 `json:"soil_moisture_27_to_81cm"`
	} `json:"hourly"`
}
