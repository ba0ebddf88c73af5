// Package classifier talks to the transaction category prediction service.
// The service takes a transaction description and answers with the most
// likely spending category and the model's confidence in it.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout       = 2 * time.Second
	DefaultMinConfidence = 0.5

	// error bodies are only logged
	maxErrorBody = 4 << 10
)

var (
	ErrDisabled    = errors.New("classifier disabled")
	ErrUnavailable = errors.New("classifier unavailable")
	ErrEmptyText   = errors.New("text is required")
)

type Prediction struct {
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	RequestID    string  `json:"request_id,omitempty"`
	ModelVersion string  `json:"model_version,omitempty"`
}

type Health struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Version    string            `json:"version,omitempty"`
}

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MinConfidence float64
	Logger        *slog.Logger
}

// Client is safe for concurrent use. A Client built without a base URL is
// disabled: Predict returns ErrDisabled and Suggest never suggests.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	minConfidence float64
	logger        *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient:    &http.Client{Timeout: opts.Timeout},
		minConfidence: opts.MinConfidence,
		logger:        opts.Logger.With("component", "classifier"),
	}
}

func (c *Client) Enabled() bool { return c != nil && c.baseURL != "" }

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Data      struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	} `json:"data"`
	Metadata struct {
		ModelVersion string `json:"model_version"`
	} `json:"metadata"`
}

// Predict asks the service for the category of text. Transport failures and
// non-2xx answers wrap ErrUnavailable.
func (c *Client) Predict(ctx context.Context, text string) (Prediction, error) {
	if !c.Enabled() {
		return Prediction{}, ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Prediction{}, ErrEmptyText
	}

	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	var out predictResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/predict", bytes.NewReader(body), &out); err != nil {
		return Prediction{}, err
	}
	if out.Status != "success" || strings.TrimSpace(out.Data.Category) == "" {
		return Prediction{}, fmt.Errorf("%w: unexpected answer status %q", ErrUnavailable, out.Status)
	}

	return Prediction{
		Category:     strings.TrimSpace(out.Data.Category),
		Confidence:   out.Data.Confidence,
		RequestID:    out.RequestID,
		ModelVersion: out.Metadata.ModelVersion,
	}, nil
}

// Suggest returns a category for text when the service is reachable and
// confident enough. Failures are logged, never returned.
func (c *Client) Suggest(ctx context.Context, text string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	p, err := c.Predict(ctx, text)
	if err != nil {
		c.logger.Warn("category suggestion skipped", "error", err)
		return "", false
	}
	if p.Confidence < c.minConfidence {
		c.logger.Debug("category suggestion below threshold",
			"category", p.Category,
			"confidence", p.Confidence,
			"request_id", p.RequestID,
		)
		return "", false
	}
	return p.Category, true
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	if !c.Enabled() {
		return Health{}, ErrDisabled
	}

	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
