// Package scriptgen asks a language model for a meditation script and turns
// its answer into a script.Document.
package scriptgen

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"time"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/llm"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/resilience"
	"github.com/bleitz/meditai/script"
)

const (
	// DefaultMinutes is used when the caller gives no usable duration.
	DefaultMinutes = 5.0

	defaultAttempts = 2
)

// Options tunes a Generator.
type Options struct {
	// Attempts is how many times the model is asked when its answer cannot be parsed.
	Attempts int `yaml:"attempts" mapstructure:"attempts"`
	// Temperature overrides the adapter default when positive.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// Generator produces meditation scripts from a topic.
type Generator struct {
	llm  llm.Completer
	opts Options
	log  *logger.Logger
}

// New creates a Generator backed by c.
func New(c llm.Completer, opts Options, log *logger.Logger) *Generator {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{llm: c, opts: opts, log: log.WithComponent("scriptgen")}
}

// Generate returns a validated script about topic of roughly minutes length.
func (g *Generator) Generate(ctx context.Context, topic string, minutes float64) (script.Document, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return script.Document{}, errors.InvalidInput("topic", "Please enter a valid topic")
	}
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		minutes = DefaultMinutes
	}

	req := llm.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: UserPrompt(topic, minutes)}},
		Temperature:  g.opts.Temperature,
	}
	log := g.log.WithContext(ctx)
	started := time.Now()

	retry := resilience.RetryConfig{
		MaxAttempts:    g.opts.Attempts,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  1,
		RetryIf: func(err error) bool {
			return errors.HasCode(err, errors.ErrCodeInvalidScript) || errors.HasCode(err, errors.ErrCodeUnsupportedPauseClass)
		},
		OnRetry: func(attempt int, err error, _ time.Duration) {
			log.Warn("model answer rejected, asking again", logger.Fields("attempt", attempt, logger.FieldError, err.Error()))
		},
	}
	doc, err := resilience.Retry(ctx, retry, func() (script.Document, error) {
		resp, err := g.llm.Complete(ctx, req)
		if err != nil {
			return script.Document{}, classify(ctx, err)
		}
		if resp.Truncated() {
			log.Warn("model answer hit the token limit", logger.Fields(logger.FieldTopic, topic))
		}
		return script.Extract(resp.Content)
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); !ok {
			err = classify(ctx, err)
		}
		log.Error("script generation failed", logger.ErrorFields("generate", err))
		return script.Document{}, err
	}

	log.Info("script generated", logger.Fields(
		logger.FieldTopic, topic,
		logger.FieldMinutes, minutes,
		logger.FieldSegments, doc.Len(),
		logger.FieldWords, doc.Words(),
		logger.FieldDuration, time.Since(started).Milliseconds(),
	))
	return doc, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, llm.ErrMissingAPIKey):
		return errors.ServiceUnavailable("script generator").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Timeout("generate script").WithCause(err)
	case stderrors.Is(err, llm.ErrEmptyResponse):
		return errors.InvalidScript("the model returned an empty answer")
	default:
		return errors.ScriptGenerationFailed(err)
	}
}
