package script

import (
	"encoding/json"
	"testing"

	"github.com/bleitz/meditai/errors"
)

func TestParsePauseClass(t *testing.T) {
	tests := []struct {
		token   string
		want    PauseClass
		wantErr bool
	}{
		{"none", PauseNone, false},
		{"short", PauseShort, false},
		{" Medium ", PauseMedium, false},
		{"LONG", PauseLong, false},
		{"", PauseNone, true},
		{"eternal", PauseNone, true},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			got, err := ParsePauseClass(tc.token)
			if tc.wantErr {
				if !errors.HasCode(err, errors.ErrCodeUnsupportedPauseClass) {
					t.Fatalf("expected UNSUPPORTED_PAUSE_CLASS, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPauseClass_JSON(t *testing.T) {
	b, err := json.Marshal(PauseMedium)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"medium"` {
		t.Errorf("got %s", b)
	}

	if _, err := json.Marshal(PauseClass(9)); err == nil {
		t.Error("expected error marshaling unknown class")
	}
	if got := PauseClass(9).String(); got != "pause(9)" {
		t.Errorf("unexpected String() for unknown class: %q", got)
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`[
		{"paragraph": "Close your eyes.", "pause": "short"},
		{"paragraph": "Breathe in slowly.", "pause": "long"},
		{"text": "Welcome back.", "break": "none"}
	]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Len() != 3 {
		t.Fatalf("expected 3 segments, got %d", doc.Len())
	}
	if doc.Segments[1].Pause != PauseLong {
		t.Errorf("expected long pause, got %v", doc.Segments[1].Pause)
	}
	if doc.Segments[2].Text != "Welcome back." {
		t.Errorf("text alias not honored: %q", doc.Segments[2].Text)
	}
	if doc.Words() != 8 {
		t.Errorf("expected 8 words, got %d", doc.Words())
	}
	if !doc.EndsWithNone() {
		t.Error("expected document to end with none")
	}
	counts := doc.Counts()
	if counts[PauseShort] != 1 || counts[PauseLong] != 1 || counts[PauseNone] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
	}{
		{"empty input", "  ", errors.ErrCodeInvalidScript},
		{"empty array", "[]", errors.ErrCodeInvalidScript},
		{"not an array", `{"paragraph": "hi", "pause": "none"}`, errors.ErrCodeInvalidScript},
		{"missing pause", `[{"paragraph": "hi"}]`, errors.ErrCodeInvalidScript},
		{"missing paragraph", `[{"pause": "short"}]`, errors.ErrCodeInvalidScript},
		{"blank paragraph", `[{"paragraph": "   ", "pause": "none"}]`, errors.ErrCodeInvalidScript},
		{"unknown pause", `[{"paragraph": "hi", "pause": "forever"}]`, errors.ErrCodeUnsupportedPauseClass},
		{"pause not a string", `[{"paragraph": "hi", "pause": 3}]`, errors.ErrCodeInvalidScript},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	output := "Here is your meditation [calm]:\n```json\n" +
		`[{"paragraph": "Settle in.", "pause": "medium"}, {"paragraph": "Rest.", "pause": "none"}]` +
		"\n```\nEnjoy!"

	doc, err := Extract(output)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Len() != 2 || doc.Segments[0].Pause != PauseMedium {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := Extract("I cannot help with that."); !errors.HasCode(err, errors.ErrCodeInvalidScript) {
		t.Errorf("expected INVALID_SCRIPT for prose, got %v", err)
	}
	if _, err := Extract("[not json"); !errors.HasCode(err, errors.ErrCodeInvalidScript) {
		t.Errorf("expected INVALID_SCRIPT for broken json, got %v", err)
	}
}

func TestExtract_SkipsArraysThatAreNotScripts(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty object", `Sure [{}] here you go: [{"paragraph": "Settle in.", "pause": "long"}]`},
		{"empty array", `Options: [] then [{"paragraph": "Settle in.", "pause": "long"}]`},
		{"unknown pause", `[{"paragraph": "x", "pause": "forever"}] [{"paragraph": "Settle in.", "pause": "long"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract(tt.output)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if doc.Len() != 1 || doc.Segments[0].Text != "Settle in." || doc.Segments[0].Pause != PauseLong {
				t.Errorf("unexpected document %+v", doc)
			}
		})
	}

	if _, err := Extract(`only [{}] here`); !errors.HasCode(err, errors.ErrCodeInvalidScript) {
		t.Errorf("expected INVALID_SCRIPT when no array is a script, got %v", err)
	}
}

func TestDocument_Validate(t *testing.T) {
	if err := (Document{}).Validate(); !errors.HasCode(err, errors.ErrCodeInvalidScript) {
		t.Errorf("empty document: expected INVALID_SCRIPT, got %v", err)
	}

	bad := New(Segment{Text: "hello", Pause: PauseClass(7)})
	if err := bad.Validate(); !errors.HasCode(err, errors.ErrCodeUnsupportedPauseClass) {
		t.Errorf("expected UNSUPPORTED_PAUSE_CLASS, got %v", err)
	}

	ok := New(Segment{Text: "hello world", Pause: PauseShort})
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := New(
		Segment{Text: "hello world", Pause: PauseShort},
		Segment{Text: "breathe deeply now", Pause: PauseNone},
	)
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"paragraph":"hello world","pause":"short"},{"paragraph":"breathe deeply now","pause":"none"}]`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}

	var back Document
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != 2 || back.Segments[1].Text != "breathe deeply now" {
		t.Errorf("unexpected decoded document %+v", back)
	}
}
