package observability

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/bleitz/meditai/errors"
)

// Stage tracks one pipeline stage as a span plus a duration metric.
type Stage struct {
	name    string
	span    trace.Span
	start   time.Time
	metrics *Metrics
}

// StartStage opens a span named spanName and starts timing stage.
// A nil metrics skips metric recording.
func StartStage(ctx context.Context, metrics *Metrics, stage, spanName string, attrs ...attribute.KeyValue) (context.Context, *Stage) {
	ctx, span := StartSpan(ctx, spanName, attrs...)
	return ctx, &Stage{name: stage, span: span, start: time.Now(), metrics: metrics}
}

// Span returns the stage span.
func (s *Stage) Span() trace.Span { return s.span }

// SetAttributes adds attributes to the stage span.
func (s *Stage) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// Duration returns the elapsed time since the stage started.
func (s *Stage) Duration() time.Duration {
	return time.Since(s.start)
}

// End closes the span and records the outcome. Errors are counted by their
// application error code.
func (s *Stage) End(ctx context.Context, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		code := ErrorCode(err)
		s.span.SetAttributes(AttrErrorCode.String(code))
		if s.metrics != nil {
			s.metrics.RecordError(ctx, s.name, code)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordStage(ctx, s.name, status, s.Duration())
	}
	EndSpan(s.span, err)
}

// ErrorCode returns the application error code of err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	if stderrors.Is(err, context.Canceled) {
		return "CANCELED"
	}
	return string(apperrors.ErrCodeInternal)
}
