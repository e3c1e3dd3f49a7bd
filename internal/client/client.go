// ABOUTME: HTTP client for the marketplace admin REST API
// ABOUTME: Handles bearer auth, request IDs, and error classification for CLI and TUI usage

package client

import (
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

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrUnauthorized reports that the backend rejected the bearer token
	ErrUnauthorized = errors.New("session expired or token rejected")
	// ErrTransport reports that no usable response was received
	ErrTransport = errors.New("backend unreachable")
	// ErrNoToken is returned by authenticated calls when no session exists
	ErrNoToken = errors.New("no token found, please log in again")
)

// TokenSource supplies the bearer token for authenticated calls
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// APIError is a non-success response from the backend
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is lets errors.Is match ErrUnauthorized on 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client is the API client for the marketplace admin backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource sets where authenticated calls read the bearer token from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource attaches the token source after construction. The session
// manager needs a client to exist before it can act as the token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// MessageResponse is the common {message} body returned by mutating endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// errorBody is the backend's failure envelope
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// request describes one API call
type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	auth     bool
	token    string // explicit token, overrides the token source
	fallback string // message used when the backend sends none
}

// do sends the request and returns the raw body of a 2xx response.
// Failures are either *APIError (backend answered) or wrap ErrTransport.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if r.auth {
		token := r.token
		if token == "" && c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return nil, ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(r, resp.StatusCode, data)
	}
	return data, nil
}

// doJSON sends the request and decodes a 2xx body into out
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid response from backend: %v", ErrTransport, err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: request canceled", ErrTransport)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", ErrTransport)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: request timed out", ErrTransport)
	}
	return fmt.Errorf("%w: cannot connect to backend at %s: %v", ErrTransport, c.baseURL, err)
}

// handleErrorResponse parses API error responses. A body that is not JSON
// means something other than the API answered (proxy, gateway), which is
// a transport problem rather than a backend verdict.
func (c *Client) handleErrorResponse(r request, status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: backend returned status %d", ErrTransport, status)
	}
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = r.fallback
	}
	if msg == "" {
		msg = fmt.Sprintf("backend returned status %d", status)
	}
	return &APIError{Op: r.op, StatusCode: status, Message: msg}
}
