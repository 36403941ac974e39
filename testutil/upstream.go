package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bleitz/meditai/script"
)

// Credentials the fakes accept.
const (
	LanguageModelKey = "sk-test"
	SpeechKey        = "speech-test"
)

// Answer is one scripted reply of the fake language model. A non-zero
// Status is returned as an error response instead of Content.
type Answer struct {
	Content string
	Status  int
}

// ScriptAnswer answers with doc encoded the way the model is asked to.
func ScriptAnswer(doc script.Document) Answer {
	data, _ := json.Marshal(doc)
	return Answer{Content: string(data)}
}

// LanguageModel is a fake OpenAI-compatible chat completions API.
type LanguageModel struct {
	srv *httptest.Server

	mu       sync.Mutex
	answers  []Answer
	requests []map[string]any
}

// NewLanguageModel starts a fake that replies with answers in order,
// repeating the last one once they run out.
func NewLanguageModel(t testing.TB, answers ...Answer) *LanguageModel {
	t.Helper()
	m := &LanguageModel{answers: answers}
	m.srv = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.srv.Close)
	return m
}

// URL is the base URL to configure as llm.base_url.
func (m *LanguageModel) URL() string { return m.srv.URL }

// Requests returns the decoded request bodies received so far.
func (m *LanguageModel) Requests() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.requests...)
}

func (m *LanguageModel) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+LanguageModelKey {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`)
		return
	}
	if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
		writeJSON(w, http.StatusNotFound, `{"error":{"message":"unknown route"}}`)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":{"message":"invalid JSON"}}`)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, body)
	answer := Answer{Content: "[]"}
	if n := len(m.answers); n > 0 {
		idx := min(len(m.requests), n) - 1
		answer = m.answers[idx]
	}
	m.mu.Unlock()

	if answer.Status != 0 {
		writeJSON(w, answer.Status, `{"error":{"message":"upstream failure"}}`)
		return
	}
	content, _ := json.Marshal(answer.Content)
	writeJSON(w, http.StatusOK, `{"id":"chatcmpl-test","model":"gpt-test","choices":[{"message":{"role":"assistant","content":`+
		string(content)+`},"finish_reason":"stop"}],"usage":{"total_tokens":1}}`)
}

// SpeechEngine is a fake Azure text to speech endpoint.
type SpeechEngine struct {
	srv   *httptest.Server
	audio []byte

	mu     sync.Mutex
	markup []string
}

// NewSpeechEngine starts a fake that answers every synthesis with audio.
func NewSpeechEngine(t testing.TB, audio []byte) *SpeechEngine {
	t.Helper()
	e := &SpeechEngine{audio: audio}
	e.srv = httptest.NewServer(http.HandlerFunc(e.serve))
	t.Cleanup(e.srv.Close)
	return e
}

// URL is the endpoint to configure as speech.endpoint.
func (e *SpeechEngine) URL() string { return e.srv.URL + "/cognitiveservices" }

// Markup returns the speech markup received so far.
func (e *SpeechEngine) Markup() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.markup...)
}

func (e *SpeechEngine) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Ocp-Apim-Subscription-Key") != SpeechKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/voices/list"):
		writeJSON(w, http.StatusOK, `[{"ShortName":"en-US-JennyNeural","Locale":"en-US"}]`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v1"):
		data, err := io.ReadAll(r.Body)
		if err != nil || !strings.HasPrefix(string(data), "<speak") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		e.mu.Lock()
		e.markup = append(e.markup, string(data))
		e.mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(e.audio)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
