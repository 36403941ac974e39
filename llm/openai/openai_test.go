package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bleitz/meditai/llm"
)

func TestRegistered(t *testing.T) {
	d, err := llm.GetDialect(DialectName)
	if err != nil {
		t.Fatalf("dialect not registered: %v", err)
	}
	if d.DefaultModel() != "gpt-3.5-turbo" {
		t.Errorf("unexpected default model %q", d.DefaultModel())
	}
}

func TestBuildRequest(t *testing.T) {
	body, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{
		Model:        "gpt-3.5-turbo",
		SystemPrompt: "You are a meditation guide.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "sleep"}},
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	b, _ := json.Marshal(body)
	want := `{"model":"gpt-3.5-turbo","messages":[{"role":"system","content":"You are a meditation guide."},{"role":"user","content":"sleep"}]}`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}

	if _, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{}); err == nil {
		t.Error("expected error without model")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		content string
		wantErr bool
	}{
		{
			name:    "first choice",
			body:    `{"id":"c1","model":"gpt-3.5-turbo-0125","choices":[{"message":{"role":"assistant","content":"[]"},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`,
			content: "[]",
		},
		{name: "no choices", body: `{"id":"c2","choices":[]}`, wantErr: true},
		{name: "garbage", body: `nope`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := (&Dialect{}).ParseResponse([]byte(tc.body))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if resp.Content != tc.content || resp.Usage.TotalTokens != 42 || resp.Truncated() {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-3.5-turbo","choices":[{"message":{"role":"assistant","content":"breathe"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: DialectName, BaseURL: srv.URL + "/v1", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := llm.Ask(context.Background(), a, "system", "user")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "breathe" {
		t.Errorf("got %q", got)
	}
}
