// Package api implements the JSON-over-HTTPS transport shared by every
// platform client. All endpoints answer with a {success, data, error} envelope;
// authenticated calls carry a bearer token obtained from a TokenSource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/layer-3/lumenpay/core"
)

// TokenSource supplies the current bearer token. An empty string means the
// call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource, mostly useful in tests.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token() string { return string(t) }

// envelope is the wire shape every endpoint responds with.
type envelope struct {
	Success bool            `json:"success"`
	Valid   *bool           `json:"valid,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Client is a thin HTTP client for the platform API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the bearer token source for authenticated calls.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the token source after construction. The session
// manager injects itself here once it exists, breaking the construction cycle
// between the auth client and the manager.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Get performs an authenticated GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, out)
	return err
}

// Post performs an authenticated POST with a JSON body and decodes the
// envelope data into out. body and out may each be nil.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.do(ctx, http.MethodPost, path, body, out)
	return err
}

// Bearer returns a copy of the client that authenticates with the fixed
// token, bypassing the configured token source. The session manager uses it to
// validate a persisted token before adopting it and to revoke a token it has
// already dropped locally.
func (c *Client) Bearer(token string) *Client {
	c2 := *c
	c2.tokens = StaticToken(token)
	return &c2
}

// GetValid performs a GET against an endpoint whose envelope carries a
// top-level "valid" flag instead of a data object.
func (c *Client) GetValid(ctx context.Context, path string) (bool, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return false, err
	}
	return env.Valid != nil && *env.Valid, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", core.ErrNetwork, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return nil, &core.APIError{StatusCode: resp.StatusCode}
			}
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success && env.Valid == nil) {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, &core.APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}
