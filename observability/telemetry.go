package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/bleitz/meditai/component"
)

// Telemetry owns the trace and meter providers for the life of the service.
type Telemetry struct {
	cfg         Config
	service     string
	version     string
	environment string

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// NewTelemetry creates the telemetry component. Exporters start on Start.
func NewTelemetry(cfg Config, service, version, environment string) *Telemetry {
	cfg.ApplyDefaults()
	return &Telemetry{cfg: cfg, service: service, version: version, environment: environment}
}

func (t *Telemetry) Name() string { return "observability" }

// Start installs the OTLP exporters when enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		return nil
	}
	tp, err := InitTracer(ctx, t.cfg.TracerConfig(t.service, t.version, t.environment))
	if err != nil {
		return fmt.Errorf("observability start: %w", err)
	}
	mp, err := InitMeter(ctx, t.cfg.MeterConfig(t.service, t.version, t.environment))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("observability start: %w", err)
	}
	t.tp, t.mp = tp, mp
	return nil
}

// Stop flushes and shuts down the exporters.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	t.tp, t.mp = nil, nil
	return errors.Join(errs...)
}

func (t *Telemetry) Health(_ context.Context) component.Health {
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

func (t *Telemetry) Describe() component.Description {
	details := "export disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp/http %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}
