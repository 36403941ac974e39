package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/bleitz/meditai/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The caller shuts it down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		logger.FieldService, config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the pipeline instruments.
type Metrics struct {
	compileTotal      metric.Int64Counter
	breakSeconds      metric.Int64Histogram
	stageDuration     metric.Float64Histogram
	synthesisDuration metric.Float64Histogram
	audioBytes        metric.Int64Counter
	activeStreams     metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	compileTotal, err := meter.Int64Counter("meditation.compile.total",
		metric.WithDescription("Scripts compiled into markup"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.compile.total counter: %w", err)
	}

	breakSeconds, err := meter.Int64Histogram("meditation.compile.break_seconds",
		metric.WithDescription("Seconds of silence emitted per compiled script"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0, 30, 60, 120, 300, 600, 1200, 1800),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.compile.break_seconds histogram: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("meditation.stage.duration",
		metric.WithDescription("Duration of pipeline stages in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.stage.duration histogram: %w", err)
	}

	synthesisDuration, err := meter.Float64Histogram("meditation.synthesis.duration",
		metric.WithDescription("Time from synthesis request to end of audio stream in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.synthesis.duration histogram: %w", err)
	}

	audioBytes, err := meter.Int64Counter("meditation.audio.bytes",
		metric.WithDescription("Audio bytes streamed to clients"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.audio.bytes counter: %w", err)
	}

	activeStreams, err := meter.Int64UpDownCounter("meditation.audio.active",
		metric.WithDescription("Audio streams currently open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.audio.active gauge: %w", err)
	}

	errorTotal, err := meter.Int64Counter("meditation.error.total",
		metric.WithDescription("Pipeline errors by stage and code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating meditation.error.total counter: %w", err)
	}

	return &Metrics{
		compileTotal:      compileTotal,
		breakSeconds:      breakSeconds,
		stageDuration:     stageDuration,
		synthesisDuration: synthesisDuration,
		audioBytes:        audioBytes,
		activeStreams:     activeStreams,
		errorTotal:        errorTotal,
	}, nil
}

// RecordCompile records one compilation and the silence it emitted.
func (m *Metrics) RecordCompile(ctx context.Context, breakSeconds int, tooShort bool) {
	m.compileTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("duration_too_short", tooShort)))
	m.breakSeconds.Record(ctx, int64(breakSeconds))
}

// RecordStage records the duration and outcome of a pipeline stage.
func (m *Metrics) RecordStage(ctx context.Context, stage, status string, d time.Duration) {
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// StreamStarted marks an audio stream as open.
func (m *Metrics) StreamStarted(ctx context.Context) {
	m.activeStreams.Add(ctx, 1)
}

// StreamFinished closes an audio stream and records its size and duration.
func (m *Metrics) StreamFinished(ctx context.Context, provider string, bytes int64, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.activeStreams.Add(ctx, -1)
	m.audioBytes.Add(ctx, bytes, attrs)
	m.synthesisDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordError counts a failed stage by error code.
func (m *Metrics) RecordError(ctx context.Context, stage, code string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("code", code),
	))
}
