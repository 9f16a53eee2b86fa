// Package httpclient is the JSON-over-HTTP transport shared by the model
// adapters that have no SDK: Ollama, OpenAI compatible servers and rerank
// endpoints.
//
// Calls that reach a model are retried with exponential backoff on transport
// errors, 429 and 5xx responses. Health checks are never retried.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragguard/internal/logger"
)

// Default retry values.
const (
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

// RetryPolicy controls how model calls are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first (default: 3).
	Attempts int

	// Backoff is the wait before the second try; it doubles on each retry
	// (default: 500ms).
	Backoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultBackoff
	}
	return p
}

// Config configures a Client.
type Config struct {
	// Name prefixes errors and log lines, for example "ollama".
	Name string

	// BaseURL is joined with the request path. Trailing slashes are trimmed.
	BaseURL string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// BearerToken is sent as Authorization when set.
	BearerToken string

	Retry RetryPolicy
}

// Client sends JSON requests to one API root.
type Client struct {
	http    *http.Client
	name    string
	baseURL string
	token   string
	retry   RetryPolicy
}

// New creates a client.
func New(cfg Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BearerToken,
		retry:   cfg.Retry.withDefaults(),
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Text returns the trimmed body for error messages.
func (r *Response) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// PostJSON marshals in, posts it to path and returns the last response.
// A non-2xx status is not an error; callers map it to their own.
func (c *Client) PostJSON(ctx context.Context, path string, in any) (*Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, http.MethodPost, path, body)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
		}
		if attempt >= c.retry.Attempts {
			if err != nil {
				return nil, fmt.Errorf("%s: giving up after %d attempts: %w", c.name, attempt, lastErr)
			}
			return resp, nil
		}

		wait := c.retry.Backoff << (attempt - 1)
		if err != nil {
			logger.Debug("%s: attempt %d failed: %v; retrying in %s", c.name, attempt, err, wait)
		} else {
			logger.Debug("%s: attempt %d returned status %d; retrying in %s", c.name, attempt, resp.StatusCode, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: cancelled during backoff: %w", c.name, ctx.Err())
		case <-timer.C:
		}
	}
}

// Check issues a single GET to path and fails on any non-2xx status.
func (c *Client) Check(ctx context.Context, path string) error {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.name, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%s: API returned status %d", c.name, resp.StatusCode)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
