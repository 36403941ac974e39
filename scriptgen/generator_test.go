package scriptgen

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/llm"
	"github.com/bleitz/meditai/script"
)

type fakeLLM struct {
	mu       sync.Mutex
	answers  []string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return &llm.CompletionResponse{Content: answer, FinishReason: "stop"}, nil
}

const goodAnswer = `Sure! Here is your meditation:
[{"paragraph": "Find a comfortable seat.", "pause": "short"},
 {"paragraph": "Notice the breath.", "pause": "long"},
 {"paragraph": "Return gently.", "pause": "none"}]`

func TestUserPrompt(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{5, `Write a meditation script based around this prompt: "sleep". The meditation should be around 5 minutes.`},
		{7.5, `Write a meditation script based around this prompt: "sleep". The meditation should be around 7.5 minutes.`},
	}
	for _, tc := range tests {
		if got := UserPrompt("sleep", tc.minutes); got != tc.want {
			t.Errorf("UserPrompt(%v) = %q", tc.minutes, got)
		}
	}
}

func TestGenerate(t *testing.T) {
	f := &fakeLLM{answers: []string{goodAnswer}}
	g := New(f, Options{}, nil)

	doc, err := g.Generate(context.Background(), "  letting go  ", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Len() != 3 || doc.Segments[1].Pause != script.PauseLong {
		t.Errorf("unexpected document %+v", doc)
	}
	if len(f.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(f.requests))
	}
	req := f.requests[0]
	if req.SystemPrompt != SystemPrompt {
		t.Error("system prompt not sent")
	}
	if req.Messages[0].Content != UserPrompt("letting go", DefaultMinutes) {
		t.Errorf("unexpected user prompt %q", req.Messages[0].Content)
	}
}

func TestGenerate_EmptyTopic(t *testing.T) {
	g := New(&fakeLLM{}, Options{}, nil)
	_, err := g.Generate(context.Background(), "   ", 5)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput || appErr.Message != "Please enter a valid topic" {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if appErr.HTTPStatus != 400 {
		t.Errorf("expected 400, got %d", appErr.HTTPStatus)
	}
}

func TestGenerate_AsksAgainOnBadAnswer(t *testing.T) {
	f := &fakeLLM{answers: []string{"I am not able to do that.", goodAnswer}}
	g := New(f, Options{Attempts: 2}, nil)

	doc, err := g.Generate(context.Background(), "focus", 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Len() != 3 || len(f.requests) != 2 {
		t.Errorf("expected success on second request, got %d requests", len(f.requests))
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
		code errors.ErrorCode
	}{
		{"unparsable", &fakeLLM{answers: []string{"no json here"}}, errors.ErrCodeInvalidScript},
		{"bad pause", &fakeLLM{answers: []string{`[{"paragraph":"x","pause":"eternal"}]`}}, errors.ErrCodeUnsupportedPauseClass},
		{"upstream", &fakeLLM{err: stderrors.New("502 bad gateway")}, errors.ErrCodeScriptGeneration},
		{"missing key", &fakeLLM{err: llm.ErrMissingAPIKey}, errors.ErrCodeServiceUnavailable},
		{"deadline", &fakeLLM{err: context.DeadlineExceeded}, errors.ErrCodeTimeout},
		{"empty answer", &fakeLLM{err: llm.ErrEmptyResponse}, errors.ErrCodeInvalidScript},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.llm, Options{Attempts: 2}, nil).Generate(context.Background(), "calm", 5)
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestGenerate_UpstreamNotRetried(t *testing.T) {
	f := &fakeLLM{err: stderrors.New("boom")}
	_, _ = New(f, Options{Attempts: 3}, nil).Generate(context.Background(), "calm", 5)
	if len(f.requests) != 1 {
		t.Errorf("upstream failures are retried by the http layer, not here; got %d requests", len(f.requests))
	}
}
