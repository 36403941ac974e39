package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/bleitz/meditai/errors"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != DefaultEndpoint || cfg.MetricInterval != DefaultMetricInterval {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	cfg.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample_rate error")
	}

	tc := cfg.TracerConfig("meditai", "1.2.3", "test")
	if tc.ServiceName != "meditai" || tc.Endpoint != DefaultEndpoint {
		t.Errorf("unexpected tracer config %+v", tc)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordCompile(ctx, 291, false)
	m.StreamStarted(ctx)
	m.StreamFinished(ctx, "azure", 1024, time.Second)
	m.RecordError(ctx, "synthesize", "SYNTHESIS_FAILED")
}

func TestStage_RecordsSpanAndMetrics(t *testing.T) {
	rec := installRecorder(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	_, compile := StartStage(ctx, m, "compile", SpanCompile, AttrWords.Int(12))
	compile.End(ctx, nil)

	_, failed := StartStage(ctx, m, "synthesize", SpanSynthesize)
	failed.End(ctx, apperrors.SynthesisFailed(errors.New("upstream 500")))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != SpanCompile || spans[0].Status().Code == codes.Error {
		t.Errorf("unexpected first span %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("failed stage span status = %v", spans[1].Status())
	}

	metrics := collect(t, reader)
	errs, ok := metrics["meditation.error.total"]
	if !ok {
		t.Fatal("meditation.error.total not recorded")
	}
	sum := errs.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("unexpected error datapoints %+v", sum.DataPoints)
	}
	code, _ := sum.DataPoints[0].Attributes.Value("code")
	if code.AsString() != "SYNTHESIS_FAILED" {
		t.Errorf("error code attribute = %q", code.AsString())
	}
	if _, ok := metrics["meditation.stage.duration"]; !ok {
		t.Error("meditation.stage.duration not recorded")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperrors.InvalidScript("empty"), "INVALID_SCRIPT"},
		{context.Canceled, "CANCELED"},
		{errors.New("boom"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestTraceIDs(t *testing.T) {
	installRecorder(t)
	if tr, sp := TraceIDs(context.Background()); tr != "" || sp != "" {
		t.Error("expected empty ids without a span")
	}
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	tr, sp := TraceIDs(ctx)
	if len(tr) != 32 || len(sp) != 16 {
		t.Errorf("unexpected ids %q %q", tr, sp)
	}
}

func TestTelemetry_DisabledIsNoop(t *testing.T) {
	tel := NewTelemetry(Config{}, "meditai", "dev", "test")
	if err := tel.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if d := tel.Describe(); d.Details != "export disabled" {
		t.Errorf("details = %q", d.Details)
	}
	if err := tel.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
