// Package telegram is a small Bot API client covering the calls the gateway
// needs: the four send methods, getFile, and file download URLs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
)

// DefaultAPIBaseURL is the public Bot API endpoint.
const DefaultAPIBaseURL = "https://api.telegram.org"

// Config configures the Bot API client.
type Config struct {
	BotToken   string        `mapstructure:"bot_token" yaml:"bot_token" json:"-"`
	ChatID     string        `mapstructure:"chat_id" yaml:"chat_id"`
	APIBaseURL string        `mapstructure:"api_base_url" yaml:"api_base_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// LegacyBaseURL is fetched for handles the Bot API cannot resolve.
	LegacyBaseURL string `mapstructure:"legacy_base_url" yaml:"legacy_base_url" validate:"omitempty,url"`
}

// Client talks to the Bot API.
type Client struct {
	apiBase string
	token   string
	chatID  string
	http    *http.Client
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := cfg.APIBaseURL
	if base == "" {
		base = DefaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiBase: strings.TrimRight(base, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		http:    httpClient,
	}
}

// HasToken reports whether a bot token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// FileURL returns the download URL for a path returned by getFile.
func (c *Client) FileURL(path string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, strings.TrimLeft(path, "/"))
}

// SendResult is a completed send exchange. Response is nil when the body was
// not a valid envelope.
type SendResult struct {
	StatusCode int
	Response   *Response
}

// OK reports a 2xx status.
func (r *SendResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Description returns the upstream error description, if any.
func (r *SendResult) Description() string {
	if r.Response == nil {
		return ""
	}
	return r.Response.Description
}

// Send posts content to the configured chat with method. A non-nil error
// means the exchange did not complete; rejections come back as a SendResult.
func (c *Client) Send(ctx context.Context, method Method, fileName string, content []byte) (*SendResult, error) {
	ctx, span := telemetry.StartClientSpan(ctx, telemetry.SpanTelegramSend,
		telemetry.Method(method.String()),
		telemetry.Size(int64(len(content))),
	)
	defer span.End()

	body, contentType, err := buildForm(c.chatID, method.Field(), fileName, content)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method.String()), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, redactToken(err, c.token)
	}
	defer resp.Body.Close()

	result := &SendResult{StatusCode: resp.StatusCode}
	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		result.Response = &envelope
	} else {
		logger.DebugCtx(ctx, "Undecodable send response", logger.Method(method.String()), logger.Status(resp.StatusCode), logger.Err(err))
	}
	return result, nil
}

func buildForm(chatID, field, fileName string, content []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", chatID); err != nil {
		return nil, "", fmt.Errorf("failed to write chat_id: %w", err)
	}
	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write %s part: %w", field, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// GetFilePath resolves fileID to its download path with getFile. An ok
// answer without a path yields "" and a nil error.
func (c *Client) GetFilePath(ctx context.Context, fileID string) (string, error) {
	ctx, span := telemetry.StartClientSpan(ctx, telemetry.SpanTelegramFile, telemetry.FileID(fileID))
	defer span.End()

	u := c.methodURL("getFile") + "?file_id=" + url.QueryEscape(fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build getFile request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", redactToken(err, c.token)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("getFile: HTTP error! status: %d", resp.StatusCode)
	}

	var fr fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return "", fmt.Errorf("getFile: failed to decode response: %w", err)
	}
	if !fr.OK || fr.Result == nil {
		return "", fmt.Errorf("getFile: %s", fallback(fr.Description, "response not ok"))
	}
	return fr.Result.FilePath, nil
}

// redactToken strips the bot token from transport errors, which embed the
// request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
