// Package backend is the HTTP client for the document assistant API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/longkey1/suvidha/internal/chat"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:3000"
	ChatPath       = "/api/chat"
	HealthPath     = "/health"
)

// maxErrorBody limits how much of an error response is kept in StatusError
const maxErrorBody = 512

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Body)
}

// HealthStatus is the body returned by the health endpoint
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client implements chat.Backend over HTTP
type Client struct {
	mu      sync.RWMutex
	baseURL string

	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new API client. Requests carry no timeout: a turn
// stays pending until the server answers or the context is cancelled.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	c.SetBaseURL(baseURL)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the current API base URL
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL changes the API base URL used by later requests
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Chat posts one turn to the chat endpoint and decodes the reply
func (c *Client) Chat(ctx context.Context, req chat.Request) (*chat.Reply, error) {
	if req.History == nil {
		req.History = []chat.Message{}
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.BaseURL() + ChatPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending chat request",
		zap.String("url", url),
		zap.Int("history", len(req.History)))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// The whole body must be one JSON document
	var reply chat.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	c.logger.Debug("Received chat reply", zap.Int("citations", len(reply.Citations)))
	return &reply, nil
}

// Health queries the health endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+HealthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &status, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
