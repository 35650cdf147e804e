// Package backend is the HTTP client for the router's REST surface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

const defaultTimeout = 30 * time.Second

// Client talks to a single router instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserID sets the user_id sent with every chat request.
func WithUserID(id string) Option {
	return func(c *Client) {
		c.userID = id
	}
}

// New creates a client for the router at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the router URL this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// keyRequest is the body for single-provider key operations.
type keyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// keyResponse is the reply to test, save and save-all.
type keyResponse struct {
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Success    bool   `json:"success"`
	SavedCount int    `json:"saved_count,omitempty"`
}

func (r keyResponse) err() error {
	if r.Success {
		return nil
	}
	reason := r.Error
	if reason == "" {
		reason = r.Message
	}
	return &RejectedError{Reason: reason}
}

// Info fetches the router's self-description.
func (c *Client) Info(ctx context.Context) (*models.ServerInfo, error) {
	var info models.ServerInfo
	if err := c.do(ctx, http.MethodGet, "/", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ProviderStatus returns the key status of every provider the router
// reports, known providers first in display order. Providers the router
// leaves out are not listed, so they do not count toward the aggregate.
func (c *Client) ProviderStatus(ctx context.Context) ([]models.ProviderStatus, error) {
	var raw map[string]models.ProviderStatus
	if err := c.do(ctx, http.MethodGet, "/api-config/status", nil, &raw); err != nil {
		return nil, err
	}

	out := make([]models.ProviderStatus, 0, len(raw))
	for _, name := range models.Providers {
		st, ok := raw[name]
		if !ok {
			continue
		}
		st.Provider = name
		out = append(out, st)
	}

	var extra []string
	for name := range raw {
		if !slices.Contains(models.Providers, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		st := raw[name]
		st.Provider = name
		out = append(out, st)
	}
	return out, nil
}

// TestKey asks the router to validate a key without storing it.
func (c *Client) TestKey(ctx context.Context, provider, key string) error {
	var resp keyResponse
	if err := c.do(ctx, http.MethodPost, "/api-config/test", keyRequest{Provider: provider, APIKey: key}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// SaveKey stores a key for one provider.
func (c *Client) SaveKey(ctx context.Context, provider, key string) error {
	var resp keyResponse
	if err := c.do(ctx, http.MethodPost, "/api-config/save", keyRequest{Provider: provider, APIKey: key}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// SaveAllKeys stores several keys at once and returns how many were saved.
func (c *Client) SaveAllKeys(ctx context.Context, keys map[string]string) (int, error) {
	var resp keyResponse
	if err := c.do(ctx, http.MethodPost, "/api-config/save-all", keys, &resp); err != nil {
		return 0, err
	}
	if err := resp.err(); err != nil {
		return 0, err
	}
	return resp.SavedCount, nil
}

// Stats fetches the router's aggregate usage counters.
func (c *Client) Stats(ctx context.Context) (*models.StatsSnapshot, error) {
	var stats models.StatsSnapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	if stats.ModelUsage == nil {
		stats.ModelUsage = map[string]int{}
	}
	stats.FetchedAt = time.Now()
	return &stats, nil
}

// Models fetches the full model catalog.
func (c *Client) Models(ctx context.Context) (models.ModelCatalog, error) {
	var resp struct {
		Models map[string]models.ModelInfo `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}

	catalog := make(models.ModelCatalog, len(resp.Models))
	for name, m := range resp.Models {
		m.Name = name
		catalog[name] = m
	}
	return catalog, nil
}

// Chat sends one message and measures the client-side round trip.
// forceModel pins the request to a model; empty lets the router choose.
func (c *Client) Chat(ctx context.Context, message, forceModel string) (*models.ChatResult, error) {
	req := models.ChatRequest{
		Message:    message,
		UserID:     c.userID,
		ForceModel: forceModel,
	}

	start := time.Now()
	var result models.ChatResult
	if err := c.do(ctx, http.MethodPost, "/chat", req, &result); err != nil {
		return nil, err
	}
	result.RoundTrip = time.Since(start)
	return &result, nil
}

// do runs one JSON request against the router. A nil in sends no body; a nil
// out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		logger.Debug("router request failed", "method", method, "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse %s %s response: %w", method, path, err)
	}
	return nil
}
