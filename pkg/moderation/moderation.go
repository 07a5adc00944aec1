// Package moderation rates publicly fetchable URLs with moderatecontent.com.
//
// Check is the only entry point the retrieval path uses: it bounds the call
// with a timeout and folds every failure into an unlabeled Outcome, so a
// broken gateway cannot be mistaken for a "not adult" rating.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
)

const (
	// DefaultBaseURL is the moderatecontent.com API.
	DefaultBaseURL = "https://api.moderatecontent.com"

	// DefaultTimeout bounds a single rating call.
	DefaultTimeout = 5 * time.Second
)

// Config configures the moderation gateway. An empty APIKey disables it.
type Config struct {
	APIKey  string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"omitempty,min=100ms"`
}

// Moderator rates the content behind fileURL.
type Moderator interface {
	Rate(ctx context.Context, fileURL string) (string, error)
}

// Client is a Moderator calling the moderatecontent.com HTTP API.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient;
// Check applies the per-call timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(base, "/"), key: cfg.APIKey, http: httpClient}
}

type rateResponse struct {
	RatingLabel string `json:"rating_label"`
	ErrorCode   int    `json:"error_code"`
}

// Rate calls GET /moderate/?key=..&url=.. and returns rating_label.
func (c *Client) Rate(ctx context.Context, fileURL string) (string, error) {
	u := fmt.Sprintf("%s/moderate/?key=%s&url=%s", c.baseURL, url.QueryEscape(c.key), url.QueryEscape(fileURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build moderation request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the API key and the bot token.
		return "", fmt.Errorf("moderation request failed: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("Content moderation API request failed: %d", resp.StatusCode)
	}

	var rr rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("failed to decode moderation response: %w", err)
	}
	return rr.RatingLabel, nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// Outcome is the result of Check. Labeled is false for every failure and
// for a successful call that returned no label.
type Outcome struct {
	Labeled bool
	Label   string
	Err     error
}

// Check rates fileURL within timeout. It never fails: errors are logged and
// reported through Outcome.Err with Labeled false.
func Check(ctx context.Context, m Moderator, timeout time.Duration, fileURL string) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := telemetry.StartClientSpan(ctx, telemetry.SpanModerate)
	defer span.End()

	label, err := m.Rate(ctx, fileURL)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Error during content moderation", logger.Err(err))
		return Outcome{Err: err}
	}
	if label == "" {
		return Outcome{}
	}
	telemetry.SetAttributes(ctx, telemetry.Label(label))
	return Outcome{Labeled: true, Label: label}
}
