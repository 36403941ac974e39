package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "meditai", buf)
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("invalid level should fall back to info, got %q", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("expected info line to be written")
	}
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "debug").WithComponent("timing")
	l.Info("compiled", Fields(FieldBreaks, 58, FieldWords, 5))

	m := decode(t, &buf)
	if m["message"] != "compiled" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldComponent] != "timing" {
		t.Errorf("expected component=timing, got %v", m[FieldComponent])
	}
	if m[FieldBreaks] != float64(58) {
		t.Errorf("expected breaks=58, got %v", m[FieldBreaks])
	}
	if m[FieldService] != "meditai" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithTrace(ctx, "trace-1", "span-1")

	jsonLogger(&buf, "info").WithContext(ctx).Info("hello")

	m := decode(t, &buf)
	for key, want := range map[string]string{
		FieldRequestID: "req-1",
		FieldTraceID:   "trace-1",
		FieldSpanID:    "span-1",
	} {
		if m[key] != want {
			t.Errorf("expected %s=%s, got %v", key, want, m[key])
		}
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
}

func TestLogger_WithErrorAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").
		WithFields(map[string]interface{}{FieldProvider: "azure"}).
		WithError(errors.New("boom"))
	l.Error("synthesis failed")

	m := decode(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
	if m[FieldProvider] != "azure" {
		t.Errorf("expected provider=azure, got %v", m[FieldProvider])
	}
}

func TestLogger_ConsoleTags(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "meditai", &buf)
	l.Warn("short duration")
	out := buf.String()
	if !strings.Contains(out, "[MED][WRN]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing")
}

func TestConfig_Defaults_And_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty uses defaults", Config{}, false},
		{"upper case level", Config{Level: "DEBUG"}, false},
		{"bad level", Config{Level: "verbose"}, true},
		{"bad format", Config{Format: "xml"}, true},
		{"bad output", Config{Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("odd trailing key should be ignored, got %v", f)
	}

	d := DurationFields("synthesize", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", d[FieldDuration])
	}

	e := ErrorFields("compile", errors.New("bad"))
	if e[FieldError] != "bad" || e[FieldOperation] != "compile" {
		t.Errorf("unexpected error fields %v", e)
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	var buf bytes.Buffer
	SetGlobalLogger(jsonLogger(&buf, "info"))
	WithComponent("server").Info("listening")
	if !strings.Contains(buf.String(), `"component":"server"`) {
		t.Errorf("expected global logger output, got %q", buf.String())
	}
}
