// Package model talks to the external language-model endpoint.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"spendyze/internal/prompt"
)

// NoResponseText replaces an answer with no candidate text.
const NoResponseText = "No response text found."

// DefaultEndpoint is the Gemini generateContent URL the client was built for.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 4 << 20

var (
	ErrRequestFailed   = errors.New("model request failed")
	ErrInvalidResponse = errors.New("invalid model response")
)

// Client calls a generateContent-style endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for endpoint. A non-empty apiKey is sent as the
// "key" query parameter.
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond sends payload and returns the answer text. A well-formed response
// without candidate text yields NoResponseText and no error.
func (c *Client) Respond(ctx context.Context, payload prompt.Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	target, err := c.requestURL()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger.DebugContext(ctx, "Model endpoint responded",
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, truncate(string(data), 256))
	}

	return ExtractText(data)
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// ExtractText reads candidates[0].content.parts[*].text and joins the parts
// with a single space. Every missing step of the path falls back to
// NoResponseText; only a body that is not JSON is an error.
func ExtractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidResponse
	}
	parts := gjson.GetBytes(body, "candidates.0.content.parts")
	if !parts.IsArray() {
		return NoResponseText, nil
	}

	texts := make([]string, 0, len(parts.Array()))
	for _, part := range parts.Array() {
		if t := part.Get("text"); t.Type == gjson.String {
			texts = append(texts, t.String())
		}
	}
	joined := strings.Join(texts, " ")
	if joined == "" {
		return NoResponseText, nil
	}
	return joined, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
