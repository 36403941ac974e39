// Package azure synthesizes speech with the Azure Cognitive Services text to
// speech REST API. Importing it registers the "azure" speech provider.
package azure

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/httpclient"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/resilience"
	"github.com/bleitz/meditai/speech"
)

const (
	// ProviderName is the configuration name of this engine.
	ProviderName = "azure"

	// DefaultOutputFormat is 24 kHz mono MP3, streamed as audio/mpeg.
	DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

	keyHeader    = "Ocp-Apim-Subscription-Key"
	formatHeader = "X-Microsoft-OutputFormat"
	ssmlType     = "application/ssml+xml"
)

func init() {
	speech.Register(ProviderName, func(cfg speech.Config, log *logger.Logger) (speech.Synthesizer, error) {
		return New(cfg, log)
	})
}

// Synthesizer posts SSML to a regional Azure endpoint and streams the reply.
type Synthesizer struct {
	client   *httpclient.Client
	bulkhead *resilience.Bulkhead
	endpoint string
	voices   string
	format   string
	log      *logger.Logger
}

var _ speech.Synthesizer = (*Synthesizer)(nil)

// New creates a Synthesizer. Either Region or Endpoint must be set.
func New(cfg speech.Config, log *logger.Logger) (*Synthesizer, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	endpoint, voices, err := endpoints(cfg)
	if err != nil {
		return nil, err
	}
	format := cfg.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}

	httpCfg := httpclient.Config{
		Timeout:        cfg.Timeout,
		Retry:          cfg.Retry,
		CircuitBreaker: cfg.CircuitBreaker,
	}
	if cfg.Key != "" {
		httpCfg.Auth = httpclient.APIKeyAuth(cfg.Key, keyHeader)
	}
	if httpCfg.Retry != nil && httpCfg.Retry.RetryIf == nil {
		r := *httpCfg.Retry
		r.RetryIf = httpclient.IsRetryable
		httpCfg.Retry = &r
	}
	if httpCfg.CircuitBreaker != nil && httpCfg.CircuitBreaker.IsFailure == nil {
		cb := *httpCfg.CircuitBreaker
		cb.IsFailure = httpclient.DefaultCircuitBreakerConfig(ProviderName).IsFailure
		httpCfg.CircuitBreaker = &cb
	}
	client, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}

	log = log.WithComponent("speech").WithFields(logger.Fields(logger.FieldProvider, ProviderName))
	return &Synthesizer{
		client: client,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          ProviderName + "-tts",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
			OnReject: func(name string) {
				log.Warn("synthesis rejected, all streams busy", logger.Fields("bulkhead", name))
			},
		}),
		endpoint: endpoint,
		voices:   voices,
		format:   format,
		log:      log,
	}, nil
}

func endpoints(cfg speech.Config) (synth, voices string, err error) {
	if cfg.Endpoint != "" {
		base := strings.TrimSuffix(strings.TrimRight(cfg.Endpoint, "/"), "/v1")
		return base + "/v1", base + "/voices/list", nil
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return "", "", fmt.Errorf("azure: region or endpoint is required")
	}
	base := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices", region)
	return base + "/v1", base + "/voices/list", nil
}

// Name returns the provider name.
func (s *Synthesizer) Name() string { return ProviderName }

// Endpoint returns the synthesis URL.
func (s *Synthesizer) Endpoint() string { return s.endpoint }

// IsAvailable lists voices to confirm the key and region are accepted.
func (s *Synthesizer) IsAvailable(ctx context.Context) bool {
	_, err := s.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: s.voices})
	return err == nil
}

// Synthesize opens an audio stream for markup. The returned body holds a
// concurrency slot until it is closed.
func (s *Synthesizer) Synthesize(ctx context.Context, markup string) (*speech.Audio, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, errors.InvalidInput("ssml", "speech markup is empty")
	}
	if err := s.bulkhead.Acquire(ctx); err != nil {
		if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
			return nil, errors.ServiceUnavailable("speech engine").WithCause(err)
		}
		return nil, classify(err)
	}

	started := time.Now()
	stream, err := s.client.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   s.endpoint,
		Headers: map[string]string{
			"Content-Type": ssmlType,
			formatHeader:   s.format,
		},
		Body: markup,
	})
	if err != nil {
		s.bulkhead.Release()
		s.log.WithContext(ctx).Error("synthesis request failed", logger.ErrorFields("synthesize", err))
		return nil, classify(err)
	}

	s.log.WithContext(ctx).Debug("synthesis stream opened", logger.Fields(
		logger.FieldStatus, stream.StatusCode,
		logger.FieldSynthesisDur, time.Since(started).Milliseconds(),
	))
	contentType := stream.ContentType()
	if contentType == "" {
		contentType = speech.ContentTypeMPEG
	}
	return &speech.Audio{
		Body:        speech.ReleaseOnClose(stream.Body, s.bulkhead.Release),
		ContentType: contentType,
		Size:        stream.ContentLength(),
	}, nil
}

func classify(err error) error {
	switch {
	case httpclient.IsCanceled(err), stderrors.Is(err, context.Canceled):
		return err
	case httpclient.IsTimeout(err), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout("synthesize").WithCause(err)
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ServiceUnavailable("speech engine").WithCause(err)
	}
	appErr := errors.SynthesisFailed(err)
	appErr.Retryable = httpclient.IsRetryable(err)
	if status := httpclient.StatusCode(err); status != 0 {
		appErr.WithDetail("upstream_status", status)
	}
	return appErr
}
