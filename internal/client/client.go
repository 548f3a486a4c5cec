// Package client is a typed HTTP client for the DevOps Tools API.
package client

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
	"strconv"
	"strings"
	"time"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
	"github.com/olgasafonova/devops-tools-api/internal/infra"
	"github.com/olgasafonova/devops-tools-api/internal/store"
	"github.com/olgasafonova/devops-tools-api/tracing"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts for idempotent requests
	DefaultMaxRetries = 3

	// DefaultBackoff is the base delay between attempts
	DefaultBackoff = 100 * time.Millisecond

	// MaxRetryAfter caps how long a 429 Retry-After is honored before giving up
	MaxRetryAfter = 5 * time.Second

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 10 << 20

	userAgent = "devops-tools-api-client/1.0"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusError is returned for non-2xx responses that are not a missing tool
// or a validation failure.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to one DevOps Tools API instance.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
	breaker    *infra.Breaker
	reads      *infra.Coalescer[response]
}

type response struct {
	status int
	body   []byte
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) Option {
	return func(client *Client) {
		client.logger = l
	}
}

// WithMaxRetries sets the attempt budget for idempotent requests
func WithMaxRetries(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay between attempts
func WithBackoff(d time.Duration) Option {
	return func(client *Client) {
		client.backoff = d
	}
}

// WithBreaker sets a custom circuit breaker
func WithBreaker(b *infra.Breaker) Option {
	return func(client *Client) {
		client.breaker = b
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		breaker:    infra.NewBreaker(),
		reads:      infra.NewCoalescer[response](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.call(ctx, http.MethodGet, "/health", nil, 0, &out)
	return out, err
}

// List returns every tool.
func (c *Client) List(ctx context.Context) ([]store.Record, error) {
	var out []store.Record
	if err := c.call(ctx, http.MethodGet, "/tools", nil, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one tool. A missing ID yields *errors.NotFoundError.
func (c *Client) Get(ctx context.Context, id int) (store.Record, error) {
	var out store.Record
	err := c.call(ctx, http.MethodGet, toolPath(id), nil, id, &out)
	return out, err
}

// Create stores a new tool and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, t store.Tool) (store.Record, error) {
	var out store.Record
	err := c.call(ctx, http.MethodPost, "/tools", t, 0, &out)
	return out, err
}

// Update replaces the tool with the given ID.
func (c *Client) Update(ctx context.Context, id int, t store.Tool) (store.Record, error) {
	var out store.Record
	err := c.call(ctx, http.MethodPut, toolPath(id), t, id, &out)
	return out, err
}

// Delete removes a tool and returns the server's confirmation message.
func (c *Client) Delete(ctx context.Context, id int) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.call(ctx, http.MethodDelete, toolPath(id), nil, id, &out)
	return out.Message, err
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() infra.BreakerState {
	return c.breaker.State()
}

func toolPath(id int) string {
	return "/tools/" + strconv.Itoa(id)
}

// call performs a request and decodes a 200 body into out. id is used to
// build a NotFoundError on 404.
func (c *Client) call(ctx context.Context, method, path string, in any, id int, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var (
		resp response
		err  error
	)
	if method == http.MethodGet {
		// The shared call outlives any single caller; each caller's ctx only
		// bounds how long that caller waits for it.
		resp, _, err = c.reads.Do(ctx, path, func() (response, error) {
			shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sharedCallTimeout())
			defer cancel()
			return c.do(shared, method, path, payload)
		})
	} else {
		resp, err = c.do(ctx, method, path, payload)
	}
	if err != nil {
		return err
	}

	if resp.status != http.StatusOK {
		return decodeError(resp, id)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// sharedCallTimeout bounds a coalesced GET across all of its attempts.
func (c *Client) sharedCallTimeout() time.Duration {
	perAttempt := c.httpClient.Timeout
	if perAttempt <= 0 {
		perAttempt = DefaultTimeout
	}
	return time.Duration(c.maxRetries) * (perAttempt + MaxRetryAfter)
}

// outcome is what a request told us about the API's health.
type outcome int

const (
	outcomeAbandoned   outcome = iota // caller gave up; no verdict
	outcomeReachable                  // the API answered below 500
	outcomeUnreachable                // attempts exhausted on errors or 5xx
)

// do sends a request through the circuit breaker. Every request admitted by
// the breaker settles it exactly once.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (response, error) {
	if err := c.breaker.Allow(); err != nil {
		return response{}, err
	}

	resp, result, err := c.send(ctx, method, path, payload)
	switch result {
	case outcomeReachable:
		c.breaker.Success()
	case outcomeUnreachable:
		c.breaker.Failure()
	default:
		c.breaker.Release()
	}
	return resp, err
}

// send retries transport errors and 5xx responses for idempotent methods
// with quadratic backoff. POST is sent once.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (response, outcome, error) {
	attempts := c.maxRetries
	if method == http.MethodPost {
		attempts = 1
	}

	target := c.baseURL.String() + path
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt*attempt) * c.backoff
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return response{}, outcomeAbandoned, fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return response{}, outcomeAbandoned, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		tracing.Inject(ctx, req.Header)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, outcomeAbandoned, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("API request failed, retrying",
				"attempt", attempt+1,
				"method", method,
				"url", target,
				"error", err)
			continue
		}

		data, err := readAndClose(httpResp)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, outcomeAbandoned, ctx.Err()
			}
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		resp := response{status: httpResp.StatusCode, body: data}

		if resp.status == http.StatusTooManyRequests {
			wait, ok := retryAfter(httpResp.Header.Get("Retry-After"))
			if !ok || attempt+1 >= attempts {
				return resp, outcomeReachable, nil
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return response{}, outcomeAbandoned, ctx.Err()
			}
			continue
		}

		if resp.status >= http.StatusInternalServerError {
			lastErr = &StatusError{StatusCode: resp.status, Detail: detailString(data)}
			c.logger.Warn("API server error, retrying",
				"attempt", attempt+1,
				"method", method,
				"url", target,
				"status", resp.status)
			continue
		}

		return resp, outcomeReachable, nil
	}

	return response{}, outcomeUnreachable, lastErr
}

// retryAfter parses a Retry-After seconds value no longer than MaxRetryAfter.
func retryAfter(v string) (time.Duration, bool) {
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	d := time.Duration(seconds) * time.Second
	if d > MaxRetryAfter {
		return 0, false
	}
	return d, true
}

// decodeError maps an error response to a typed error.
func decodeError(resp response, id int) error {
	switch resp.status {
	case http.StatusNotFound:
		if detailString(resp.body) == apperrors.NotFoundMessage {
			return apperrors.NewNotFoundError(id)
		}
	case http.StatusUnprocessableEntity:
		var body struct {
			Detail []apperrors.FieldError `json:"detail"`
		}
		if err := json.Unmarshal(resp.body, &body); err == nil && len(body.Detail) > 0 {
			return apperrors.NewValidationError(body.Detail...)
		}
	}
	return &StatusError{StatusCode: resp.status, Detail: detailString(resp.body)}
}

// detailString extracts a string "detail" field, falling back to the
// truncated raw body.
func detailString(body []byte) string {
	var d struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &d); err == nil && d.Detail != "" {
		return d.Detail
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, errors.New("response body too large")
	}
	return body, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
