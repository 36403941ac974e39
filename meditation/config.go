package meditation

import (
	"fmt"
	"math"
	"time"

	"github.com/bleitz/meditai/timing"
)

const (
	DefaultScriptTimeout  = 90 * time.Second
	DefaultStreamTimeout  = 15 * time.Minute
	DefaultMaxMinutes     = 60.0
	DefaultMaxTopicLength = 500
	DefaultMaxSegments    = 200
)

// Config bounds the external calls made by the pipeline. Compilation is
// never bounded; it does no I/O.
type Config struct {
	// ScriptTimeout bounds one script generation, re-asks included.
	ScriptTimeout time.Duration `yaml:"script_timeout" mapstructure:"script_timeout"`
	// StreamTimeout bounds a synthesis stream from request to last byte.
	StreamTimeout time.Duration `yaml:"stream_timeout" mapstructure:"stream_timeout"`
	Limits        Limits        `yaml:"-" mapstructure:"-"`
}

// Limits caps what a single request may ask for.
type Limits struct {
	MaxMinutes     float64 `yaml:"max_minutes" mapstructure:"max_minutes"`
	MaxTopicLength int     `yaml:"max_topic_length" mapstructure:"max_topic_length"`
	MaxSegments    int     `yaml:"max_segments" mapstructure:"max_segments"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.ScriptTimeout <= 0 {
		c.ScriptTimeout = DefaultScriptTimeout
	}
	if c.StreamTimeout <= 0 {
		c.StreamTimeout = DefaultStreamTimeout
	}
	c.Limits.ApplyDefaults()
}

// ApplyDefaults fills zero values.
func (l *Limits) ApplyDefaults() {
	if l.MaxMinutes <= 0 {
		l.MaxMinutes = DefaultMaxMinutes
	}
	if l.MaxTopicLength <= 0 {
		l.MaxTopicLength = DefaultMaxTopicLength
	}
	if l.MaxSegments <= 0 {
		l.MaxSegments = DefaultMaxSegments
	}
}

// Validate checks the limits after defaults are applied.
func (l *Limits) Validate() error {
	if l.MaxMinutes < 1 {
		return fmt.Errorf("limits.max_minutes must be at least 1 (got: %v)", l.MaxMinutes)
	}
	if l.MaxMinutes > timing.MaxTargetMinutes {
		return fmt.Errorf("limits.max_minutes must be at most %d (got: %v)", timing.MaxTargetMinutes, l.MaxMinutes)
	}
	return nil
}

// ClampMinutes caps a requested duration at max. Missing, zero, negative or
// non-finite values take the default length; short positive values such as
// 0.5 pass through unchanged.
func (l Limits) ClampMinutes(minutes float64) float64 {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		minutes = timing.DefaultMinutes
	}
	return math.Min(minutes, l.MaxMinutes)
}
