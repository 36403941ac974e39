package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bleitz/meditai/resilience"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "meditai"
)

// Config configures an outbound HTTP client for one provider.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds buffered requests. Streams are bounded by context only.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent on every request unless a request sets its own.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Auth is applied to every request. Requests may override it.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are applied to every request before request headers.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry wraps each call. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// CircuitBreaker guards each attempt. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter throttles each attempt. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("httpclient: invalid base_url %q", c.BaseURL)
		}
	}
	return nil
}

// DefaultRetryConfig returns a retry config that only retries transient HTTP failures.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a circuit breaker config that ignores client errors.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = func(err error) bool {
		return err != nil && (IsRetryable(err) || IsServerError(err))
	}
	return &cfg
}

// DefaultRateLimiterConfig returns a default rate limiter config.
func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}
