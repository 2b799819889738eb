// Package client is a Go client for the TemplateDir versioned API.
//
// Client wraps the HTTP endpoints and decodes the response envelope.
// Mirror keeps the last fetched feed in memory for a UI, pages through it
// and applies saves optimistically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// Client provides access to a TemplateDir server.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger

	mu    sync.RWMutex
	token string
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// New creates a client for the server at baseURL, e.g. "http://localhost:4000".
func New(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if opts.RequestsPerSecond > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// SetToken sets the bearer access token sent with every request.
// An empty token makes subsequent requests anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current access token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the wire shape of every versioned API response.
type envelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Details map[string]any  `json:"details,omitempty"`
}

// decodeEnvelope unwraps a response body into out. out may be nil when
// the caller does not need the data.
func decodeEnvelope(op string, status int, body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{Op: op, Status: status, Message: fmt.Sprintf("parse response: %v", err)}
	}

	if !env.Success || status >= http.StatusBadRequest {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Op: op, Status: status, Code: env.Code, Message: msg, Details: env.Details}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Op: op, Status: status, Message: fmt.Sprintf("parse data: %v", err)}
	}
	return nil
}

// do sends one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("templatedir request", "op", op, "method", method, "url", target)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	limit := int64(maxErrorBody)
	if resp.StatusCode < http.StatusBadRequest {
		limit = -1
	}
	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	return decodeEnvelope(op, resp.StatusCode, raw, out)
}
