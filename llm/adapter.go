// Package llm is a provider-neutral chat completion client. Provider wire
// formats live in Dialect implementations such as llm/openai.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bleitz/meditai/httpclient"
	"github.com/bleitz/meditai/httpclient/rest"
)

var (
	ErrNoDialect     = errors.New("llm: dialect is required")
	ErrMissingAPIKey = errors.New("llm: api key is not configured")
	ErrEmptyMessages = errors.New("llm: at least one message is required")
	ErrEmptyResponse = errors.New("llm: provider returned no content")
)

// Adapter sends completions to one provider through its Dialect.
type Adapter struct {
	name      string
	rest      *rest.Client
	dialect   Dialect
	apiKey    string
	model     string
	temp      float64
	maxTokens int
}

// New creates an adapter for the dialect named in cfg.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an adapter without consulting the registry.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.Dialect = dialect.Name()
	cfg.ApplyDefaults()
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = dialect.DefaultBaseURL()
	}
	model := cfg.Model
	if model == "" {
		model = dialect.DefaultModel()
	}

	httpCfg := httpclient.Config{
		BaseURL:        baseURL,
		Timeout:        cfg.Timeout,
		Headers:        cfg.Headers,
		Retry:          cfg.Retry,
		CircuitBreaker: cfg.CircuitBreaker,
		RateLimiter:    cfg.RateLimiter,
	}
	if cfg.APIKey != "" {
		httpCfg.Auth = dialect.Auth(cfg.APIKey)
	}
	if httpCfg.Retry != nil && httpCfg.Retry.RetryIf == nil {
		r := *httpCfg.Retry
		r.RetryIf = httpclient.IsRetryable
		httpCfg.Retry = &r
	}
	if httpCfg.CircuitBreaker != nil {
		cb := *httpCfg.CircuitBreaker
		if cb.Name == "" {
			cb.Name = cfg.Name
		}
		if cb.IsFailure == nil {
			cb.IsFailure = httpclient.DefaultCircuitBreakerConfig(cb.Name).IsFailure
		}
		httpCfg.CircuitBreaker = &cb
	}

	client, err := rest.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create rest client: %w", err)
	}
	return &Adapter{
		name:      cfg.Name,
		rest:      client,
		dialect:   dialect,
		apiKey:    cfg.APIKey,
		model:     model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// Model returns the default model.
func (a *Adapter) Model() string { return a.model }

// Dialect returns the provider mapping in use.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Configured reports whether credentials are present.
func (a *Adapter) Configured() bool { return a.apiKey != "" }

// IsAvailable probes the dialect's health endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	if !a.Configured() {
		return false
	}
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := rest.Get[json.RawMessage](ctx, a.rest, hp)
	return err == nil
}

// Complete sends req and returns the provider's answer.
func (a *Adapter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !a.Configured() {
		return nil, ErrMissingAPIKey
	}
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	resp, err := rest.Post[json.RawMessage](ctx, a.rest, a.dialect.ChatPath(), body)
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", a.dialect.Name(), err)
	}
	result, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("llm: parse response: %w", err)
	}
	if strings.TrimSpace(result.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return result, nil
}

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
