package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "inference"

	// DefaultTimeout bounds a single prediction.
	DefaultTimeout = 15 * time.Second

	// LabelLandslide is reported when class 1 has the highest probability.
	LabelLandslide = "Landslide"

	// LabelNoLandslide is reported otherwise.
	LabelNoLandslide = "No Landslide"
)

var (
	// ErrNotConfigured is returned when no inference URL is set.
	ErrNotConfigured = errors.New("inference service URL is not configured")

	// ErrUnavailable wraps transport and upstream failures.
	ErrUnavailable = errors.New("inference service unavailable")

	// ErrMalformedResponse is returned for unusable inference output.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Prediction is the classified result returned to the dashboard.
type Prediction struct {
	Label       string  `json:"prediction"`
	Confidence  string  `json:"confidence"`
	Class       int     `json:"-"`
	Probability float64 `json:"-"`
}

// ClientConfig holds configuration for the inference client.
type ClientConfig struct {
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client calls the remote inference service.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new inference client.
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

// DefaultHTTPConfig is the transport policy for inference calls. A
// prediction has no side effects, so failed attempts are retried.
func DefaultHTTPConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.Timeout = DefaultTimeout
	return cfg
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// Predict classifies f.
func (c *Client) Predict(ctx context.Context, f Features) (*Prediction, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(predictRequest{Features: f.Vector()})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	prediction, err := Classify(pr.Probabilities)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Floats64("probabilities", pr.Probabilities).
		Str("prediction", prediction.Label).
		Msg("landslide prediction")

	return prediction, nil
}

// Classify picks the most probable class. Ties resolve to the lower class.
func Classify(probabilities []float64) (*Prediction, error) {
	if len(probabilities) == 0 {
		return nil, fmt.Errorf("%w: no probabilities", ErrMalformedResponse)
	}

	best := 0
	for i, p := range probabilities {
		if p > probabilities[best] {
			best = i
		}
	}

	label := LabelNoLandslide
	if best == 1 {
		label = LabelLandslide
	}

	return &Prediction{
		Label:       label,
		Confidence:  fmt.Sprintf("%.2f%%", probabilities[best]*100),
		Class:       best,
		Probability: probabilities[best],
	}, nil
}
