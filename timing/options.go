package timing

import (
	"fmt"

	"github.com/bleitz/meditai/ssml"
)

const (
	// WordsPerMinute is the speaking rate used to estimate spoken duration.
	WordsPerMinute = 80
	// LeadInSeconds is the silence before the first paragraph.
	LeadInSeconds = 5
	// BufferSeconds is held back from the silence budget.
	BufferSeconds = 0
	// MaxAtomicPauseSeconds is the longest single break the engine accepts.
	MaxAtomicPauseSeconds = 5
	// DefaultMinutes is used when the requested duration is missing or non-positive.
	DefaultMinutes = 5.0
	// MaxTargetMinutes is the longest target Compile accepts.
	MaxTargetMinutes = 24 * 60
)

// Options tunes a Compiler. Zero fields take the package constants.
type Options struct {
	WordsPerMinute        int        `yaml:"words_per_minute" mapstructure:"words_per_minute"`
	LeadInSeconds         int        `yaml:"lead_in_seconds" mapstructure:"lead_in_seconds"`
	BufferSeconds         int        `yaml:"buffer_seconds" mapstructure:"buffer_seconds"`
	MaxAtomicPauseSeconds int        `yaml:"max_atomic_pause_seconds" mapstructure:"max_atomic_pause_seconds"`
	DefaultMinutes        float64    `yaml:"default_minutes" mapstructure:"default_minutes"`
	Voice                 ssml.Voice `yaml:"-" mapstructure:"-"`
}

// DefaultOptions returns the reference timing with the default voice.
func DefaultOptions() Options {
	o := Options{Voice: ssml.DefaultVoice()}
	o.ApplyDefaults()
	return o
}

// ApplyDefaults fills zero fields. A negative LeadInSeconds disables the lead-in.
func (o *Options) ApplyDefaults() {
	if o.WordsPerMinute == 0 {
		o.WordsPerMinute = WordsPerMinute
	}
	if o.LeadInSeconds == 0 {
		o.LeadInSeconds = LeadInSeconds
	}
	if o.MaxAtomicPauseSeconds == 0 {
		o.MaxAtomicPauseSeconds = MaxAtomicPauseSeconds
	}
	if o.DefaultMinutes <= 0 {
		o.DefaultMinutes = DefaultMinutes
	}
	o.Voice.ApplyDefaults()
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	if o.WordsPerMinute <= 0 {
		return fmt.Errorf("timing.words_per_minute must be positive (got: %d)", o.WordsPerMinute)
	}
	if o.MaxAtomicPauseSeconds <= 0 {
		return fmt.Errorf("timing.max_atomic_pause_seconds must be positive (got: %d)", o.MaxAtomicPauseSeconds)
	}
	if o.BufferSeconds < 0 {
		return fmt.Errorf("timing.buffer_seconds must not be negative (got: %d)", o.BufferSeconds)
	}
	return nil
}

// LeadIn returns the effective lead-in in seconds.
func (o *Options) LeadIn() int {
	if o.LeadInSeconds < 0 {
		return 0
	}
	return o.LeadInSeconds
}
