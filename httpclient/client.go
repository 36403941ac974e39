// Package httpclient is the outbound HTTP layer shared by the LLM and speech
// providers. Each attempt passes through an optional rate limiter and circuit
// breaker; whole calls may be retried.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bleitz/meditai/resilience"
)

// maxErrorBody caps how much of a failed stream is read for classification.
const maxErrorBody = 64 << 10

// Client is an HTTP client with auth and resilience applied per provider.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	config       Config
	cb           *resilience.CircuitBreaker
	rl           *resilience.RateLimiter
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Streams may outlive Timeout; only the wait for headers is bounded.
	// The caller's context bounds the rest.
	streamTransport := transport.Clone()
	streamTransport.ResponseHeaderTimeout = cfg.Timeout
	c := &Client{
		httpClient:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		streamClient: &http.Client{Transport: streamTransport},
		config:       cfg,
	}
	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return c, nil
}

// CircuitState reports the breaker state, or closed when no breaker is configured.
func (c *Client) CircuitState() resilience.State {
	if c.cb == nil {
		return resilience.StateClosed
	}
	return c.cb.State()
}

// Do executes req and buffers the whole response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	return withRetry(ctx, c.config.Retry, func() (*Response, error) {
		return guard(ctx, c, func() (*Response, error) {
			return c.execute(ctx, req, body)
		})
	})
}

// DoStream executes req and hands back the body unread.
// Retry covers opening the stream only; nothing already read is replayed.
func (c *Client) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	return withRetry(ctx, c.config.Retry, func() (*StreamResponse, error) {
		return guard(ctx, c, func() (*StreamResponse, error) {
			return c.open(ctx, req, body)
		})
	})
}

func withRetry[T any](ctx context.Context, cfg *resilience.RetryConfig, fn func() (T, error)) (T, error) {
	if cfg == nil {
		return fn()
	}
	return resilience.Retry(ctx, *cfg, fn)
}

// guard applies the rate limiter and circuit breaker to a single attempt.
func guard[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var zero T
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return zero, transportError(ctx, err)
		}
	}
	if c.cb == nil {
		return fn()
	}
	var out T
	err := c.cb.Execute(func() error {
		var execErr error
		out, execErr = fn()
		return execErr
	})
	return out, err
}

func (c *Client) execute(ctx context.Context, req Request, body *encodedBody) (*Response, error) {
	httpReq, err := c.build(ctx, req, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}
	if classErr := ClassifyStatusCode(resp.StatusCode, data); classErr != nil {
		return out, classErr
	}
	return out, nil
}

func (c *Client) open(ctx context.Context, req Request, body *encodedBody) (*StreamResponse, error) {
	httpReq, err := c.build(ctx, req, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, ClassifyStatusCode(resp.StatusCode, data)
	}
	return &StreamResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       resp.Body,
	}, nil
}

func (c *Client) build(ctx context.Context, req Request, body *encodedBody) (*http.Request, error) {
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && body.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", body.contentType)
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)
	return httpReq, nil
}

type encodedBody struct {
	data        []byte
	contentType string
}

// encodeBody buffers the request body once so every attempt sends the same bytes.
func encodeBody(body any) (*encodedBody, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return &encodedBody{data: v}, nil
	case string:
		return &encodedBody{data: []byte(v), contentType: "text/plain; charset=utf-8"}, nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("read body: %v", err))
		}
		return &encodedBody{data: data}, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
		}
		return &encodedBody{data: data, contentType: "application/json"}, nil
	}
}
