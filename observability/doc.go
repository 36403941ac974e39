// Package observability wires OpenTelemetry tracing and metrics for the
// meditation pipeline.
//
// Export over OTLP/HTTP is enabled through Config; until then spans and
// instruments run against the global no-op providers.
//
//	telemetry := observability.NewTelemetry(cfg, "meditai", version, "production")
//	registry.Register(telemetry)
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	ctx, stage := observability.StartStage(ctx, metrics, "compile", observability.SpanCompile)
//	defer stage.End(ctx, err)
package observability
