package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendyze/internal/core"
)

const maxReplySize = 4 << 20

// HTTPClient calls the backend over HTTP. Request bodies are JSON sent
// with a text/plain content type, which the backend expects.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (Reply, error) {
	return c.postText(ctx, "/login", Credentials{Username: username, Password: password})
}

func (c *HTTPClient) CreateAccount(ctx context.Context, username, password string) (Reply, error) {
	return c.postText(ctx, "/create_account", Credentials{Username: username, Password: password})
}

func (c *HTTPClient) AddTransaction(ctx context.Context, t core.NewTransaction) (Reply, error) {
	return c.postText(ctx, "/home", NewTransactionBody(t))
}

func (c *HTTPClient) Transactions(ctx context.Context) (Transactions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions", nil)
	if err != nil {
		return Transactions{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transactions{}, fmt.Errorf("get transactions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return Transactions{}, fmt.Errorf("read transactions: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return Transactions{}, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Transactions{}, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out Transactions
	if err := json.Unmarshal(body, &out); err != nil {
		return Transactions{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.Records == nil {
		out.Records = []core.TransactionRecord{}
	}
	c.logger.DebugContext(ctx, "Transactions fetched", "records", len(out.Records))
	return out, nil
}

func (c *HTTPClient) postText(ctx context.Context, path string, payload any) (Reply, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	c.logger.DebugContext(ctx, "Backend replied", "path", path, "status_code", resp.StatusCode)
	return Reply{Status: resp.StatusCode, Body: string(body)}, nil
}
