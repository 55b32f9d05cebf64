// Package httpapi is the small JSON-over-HTTP client shared by the agents
// that call external REST services.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one HTTP round trip.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 10 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s API error: HTTP %d: %s", e.Service, e.StatusCode, body)
}

// Client calls one external service.
type Client struct {
	service string
	http    *http.Client
	limiter *rate.Limiter
	headers http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit allows perSecond requests with the given burst. Callers wait
// for a token rather than fail.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client; service names it in errors and logs.
func New(service string, opts ...Option) *Client {
	c := &Client{
		service: service,
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches rawURL with query appended and parses the JSON body.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values) (gjson.Result, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// PostJSON sends body as JSON and parses the JSON reply.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any) (gjson.Result, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: encode request: %w", c.service, err)
	}
	return c.do(ctx, http.MethodPost, rawURL, data)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (gjson.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, fmt.Errorf("%s: rate limit wait: %w", c.service, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: build request: %w", c.service, err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // cleanup

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: read response: %w", c.service, err)
	}
	slog.Debug("httpapi: request completed",
		"service", c.service,
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: data}
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s: response is not valid JSON", c.service)
	}
	return gjson.ParseBytes(data), nil
}
