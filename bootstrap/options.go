package bootstrap

import (
	"io"
	"time"

	"github.com/bleitz/meditai/logger"
)

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	summaryOut      io.Writer
	quiet           bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger uses l instead of a logger built from the config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the shutdown sequence. The default is 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSummaryOutput prints the startup summary to w instead of stdout.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
	}
}

// WithoutSummary suppresses the startup summary, for CLI tasks.
func WithoutSummary() Option {
	return func(o *appOptions) {
		o.quiet = true
	}
}
