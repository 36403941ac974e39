package llm

import (
	"fmt"
	"time"

	"github.com/bleitz/meditai/resilience"
)

const defaultTimeout = 60 * time.Second

// Config configures an Adapter.
type Config struct {
	// Name identifies the adapter in logs and breaker names. Defaults to "<dialect>-llm".
	Name string `yaml:"name" mapstructure:"name"`
	// Dialect selects a registered provider mapping.
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
	// BaseURL overrides the dialect's default endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model overrides the dialect's default model.
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// MaxTokens of 0 leaves the limit to the provider.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// APIKey is normally supplied through the environment, not the file.
	APIKey  string            `yaml:"-" mapstructure:"api_key"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "openai"
	}
	if c.Name == "" {
		c.Name = c.Dialect + "-llm"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the config after defaults.
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm: temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("llm: max_tokens must not be negative")
	}
	return nil
}
