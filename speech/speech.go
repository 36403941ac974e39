// Package speech turns rendered speech markup into an audio stream.
package speech

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/resilience"
)

// ContentTypeMPEG is the content type of the default output format.
const ContentTypeMPEG = "audio/mpeg"

// Audio is a synthesized clip. Body must be closed by the consumer.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
	// Size is the declared length in bytes, or -1 when the engine streams.
	Size int64
}

// Synthesizer converts speech markup to audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, markup string) (*Audio, error)
}

// Checker is implemented by synthesizers that can report upstream health.
type Checker interface {
	IsAvailable(ctx context.Context) bool
}

// Config selects and configures a speech engine.
type Config struct {
	// Provider names a registered engine ("azure").
	Provider string `yaml:"provider" mapstructure:"provider"`
	Region   string `yaml:"region" mapstructure:"region"`
	// Key is normally supplied through the environment.
	Key string `yaml:"-" mapstructure:"key"`
	// Endpoint overrides the region-derived URL.
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	OutputFormat string `yaml:"output_format" mapstructure:"output_format"`
	// Timeout bounds opening the stream. Reading it is bounded by the caller.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxConcurrent caps open synthesis streams.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a request waits for a free stream slot.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`

	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "azure"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
}

// Factory builds a Synthesizer from config.
type Factory func(cfg Config, log *logger.Logger) (Synthesizer, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a speech engine available by name.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers returns the registered engine names in sorted order.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the engine named by cfg.Provider.
func New(cfg Config, log *logger.Logger) (Synthesizer, error) {
	cfg.ApplyDefaults()
	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("speech: unknown provider %q (forgot to import driver?)", cfg.Provider)
	}
	if log == nil {
		log = logger.Nop()
	}
	return f(cfg, log)
}
