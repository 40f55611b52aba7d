// Package geospatial looks up slope and soil type for a coordinate from the
// geospatial microservice.
package geospatial

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
)

const (
	// ProviderName identifies this provider.
	ProviderName = "geospatial"

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 15 * time.Second
)

var (
	// ErrNotConfigured is returned when no service URL is set.
	ErrNotConfigured = errors.New("geospatial service URL is not configured")

	// ErrUnavailable wraps transport and upstream failures.
	ErrUnavailable = errors.New("geospatial service unavailable")
)

// ClientConfig holds configuration for the geospatial client.
type ClientConfig struct {
	// BaseURL of the geospatial service. Empty disables lookups.
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client proxies location lookups to the geospatial service.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new geospatial client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(DefaultHTTPConfig())
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// DefaultHTTPConfig is the transport policy for geospatial lookups.
func DefaultHTTPConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.Timeout = DefaultTimeout
	return cfg
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetLocationData returns the service's JSON document for lat/lon unchanged.
func (c *Client) GetLocationData(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_geo_data?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("bytes", len(raw)).
		Msg("fetched geospatial data")

	return raw, nil
}
