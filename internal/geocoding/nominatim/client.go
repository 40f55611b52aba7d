// Package nominatim searches place names through the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent is sent with every request as Nominatim's usage policy requires.
	DefaultUserAgent = "Two-Step-Ahead landslide dashboard"

	// DefaultCountryCodes restricts results to the Philippines.
	DefaultCountryCodes = "PH"

	// DefaultTimeout bounds a single search.
	DefaultTimeout = 10 * time.Second

	// DefaultLimit is the number of results requested.
	DefaultLimit = 1

	// MinQueryLength is the shortest trimmed query sent upstream.
	MinQueryLength = 3

	// UnnamedLocation is used when a result has no display name.
	UnnamedLocation = "Unnamed Location"
)

// ErrUnavailable wraps transport and upstream failures.
var ErrUnavailable = errors.New("nominatim unavailable")

// Location is a single search suggestion.
type Location struct {
	Name     string `json:"name"`
	Lat      string `json:"lat"`
	Lon      string `json:"lon"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	CountryCodes string
	Limit        int

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is a Nominatim search client.
type Client struct {
	baseURL      string
	userAgent    string
	countryCodes string
	limit        int
	httpClient   *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:      cfg.BaseURL,
		userAgent:    cfg.UserAgent,
		countryCodes: cfg.CountryCodes,
		limit:        cfg.Limit,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.countryCodes == "" {
		c.countryCodes = DefaultCountryCodes
	}
	if c.limit <= 0 {
		c.limit = DefaultLimit
	}
	if c.httpClient == nil {
		c.httpClient = resilience.NewClient(DefaultHTTPConfig())
	}
	return c
}

// DefaultHTTPConfig is the transport policy for searches.
func DefaultHTTPConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.Timeout = DefaultTimeout
	return cfg
}

// Search returns suggestions for query. Queries shorter than MinQueryLength
// after trimming return no suggestions without contacting Nominatim.
func (c *Client) Search(ctx context.Context, query string) ([]Location, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return []Location{}, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("countrycodes", c.countryCodes)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}

	locations := make([]Location, 0, len(places))
	for _, p := range places {
		locations = append(locations, p.toLocation())
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(locations)).
		Msg("nominatim search completed")

	return locations, nil
}

// place is one element of the Nominatim search response. format=json reports
// the category as "class"; jsonv2 as "category".
type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

func (p place) toLocation() Location {
	loc := Location{
		Name:     p.DisplayName,
		Lat:      p.Lat,
		Lon:      p.Lon,
		Category: p.Category,
		Type:     p.Type,
	}
	if loc.Name == "" {
		loc.Name = UnnamedLocation
	}
	if loc.Category == "" {
		loc.Category = p.Class
	}
	return loc
}
