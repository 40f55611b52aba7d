package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the Generative Language API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the text-generation model used for reports.
	DefaultModel = "gemini-2.5-flash"

	// DefaultTimeout bounds a whole streamed report.
	DefaultTimeout = 2 * time.Minute

	maxEventSize = 1 << 20
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("text-generation API key is not configured")

	// ErrUnavailable wraps transport and upstream failures.
	ErrUnavailable = errors.New("text-generation service unavailable")
)

// GeneratorConfig holds configuration for the report generator.
type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// HTTPClient is the HTTP client to use (optional). Streams are not retried.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Generator streams reports from the text-generation API.
type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewGenerator creates a new report generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.httpClient == nil {
		g.httpClient = resilience.NewClient(DefaultHTTPConfig())
	}
	return g
}

// DefaultHTTPConfig is the transport policy for report streams: one attempt
// with a long timeout.
func DefaultHTTPConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.Timeout = DefaultTimeout
	cfg.MaxRetries = 0
	return cfg
}

// Configured reports whether an API key is set.
func (g *Generator) Configured() bool {
	return g.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *generateResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Stream sends prompt and calls emit with each non-empty text chunk in order.
// An error from emit stops the stream and is returned as is.
func (g *Generator) Stream(ctx context.Context, prompt string, emit func(chunk string) error) error {
	if !g.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status code: %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	chunks := 0
	err = readEvents(resp.Body, func(data []byte) error {
		var gr generateResponse
		if err := json.Unmarshal(data, &gr); err != nil {
			return fmt.Errorf("%w: decoding event: %w", ErrUnavailable, err)
		}
		if gr.Error != nil {
			return fmt.Errorf("%w: %d %s", ErrUnavailable, gr.Error.Code, gr.Error.Message)
		}
		text := gr.text()
		if text == "" {
			return nil
		}
		chunks++
		return emit(text)
	})

	g.logger.Debug().
		Str("model", g.model).
		Int("chunks", chunks).
		Err(err).
		Msg("report stream finished")

	return err
}

// readEvents calls fn with the data of each server-sent event in r.
// Multi-line data fields are joined with newlines.
func readEvents(r io.Reader, fn func(data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []byte
	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		event := data
		data = nil
		if string(event) == "[DONE]" {
			return nil
		}
		return fn(event)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		value, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			// Comments, event names and ids carry no payload.
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if len(data) > 0 {
			data = append(data, '\n')
		}
		data = append(data, value...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading stream: %w", ErrUnavailable, err)
	}
	return flush()
}
