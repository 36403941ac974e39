package azure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/resilience"
	"github.com/bleitz/meditai/speech"
)

const markup = `<speak version="1.0"><voice name="en-US-JennyNeural"><p>Breathe.</p></voice></speak>`

func newTestSynth(t *testing.T, srv *httptest.Server, mutate func(*speech.Config)) *Synthesizer {
	t.Helper()
	cfg := speech.Config{Endpoint: srv.URL + "/cognitiveservices", Key: "test-key"}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestEndpoints(t *testing.T) {
	s, err := New(speech.Config{Region: "germanywestcentral", Key: "k"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := "https://germanywestcentral.tts.speech.microsoft.com/cognitiveservices/v1"
	if s.Endpoint() != want {
		t.Errorf("endpoint = %q, want %q", s.Endpoint(), want)
	}
	if _, err := New(speech.Config{Key: "k"}, nil); err == nil {
		t.Error("expected error without region or endpoint")
	}
}

func TestRegistered(t *testing.T) {
	s, err := speech.New(speech.Config{Provider: ProviderName, Region: "westeurope"}, nil)
	if err != nil {
		t.Fatalf("speech.New: %v", err)
	}
	if s.Name() != ProviderName {
		t.Errorf("unexpected provider %q", s.Name())
	}
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cognitiveservices/v1" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		checks := map[string]string{
			"Ocp-Apim-Subscription-Key": "test-key",
			"Content-Type":              "application/ssml+xml",
			"X-Microsoft-OutputFormat":  DefaultOutputFormat,
			"User-Agent":                "meditai",
		}
		for header, want := range checks {
			if got := r.Header.Get(header); got != want {
				t.Errorf("%s = %q, want %q", header, got, want)
			}
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != markup {
			t.Errorf("unexpected body %s", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 fake mp3"))
	}))
	defer srv.Close()

	s := newTestSynth(t, srv, nil)
	audio, err := s.Synthesize(context.Background(), markup)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, _ := io.ReadAll(audio.Body)
	_ = audio.Body.Close()
	if string(data) != "ID3 fake mp3" || audio.ContentType != speech.ContentTypeMPEG {
		t.Errorf("unexpected audio %q %s", data, audio.ContentType)
	}
	if s.bulkhead.InUse() != 0 {
		t.Errorf("slot not released after close, in use %d", s.bulkhead.InUse())
	}
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      errors.ErrorCode
		retryable bool
	}{
		{"bad key", http.StatusUnauthorized, errors.ErrCodeSynthesis, false},
		{"bad ssml", http.StatusBadRequest, errors.ErrCodeSynthesis, false},
		{"throttled", http.StatusTooManyRequests, errors.ErrCodeSynthesis, true},
		{"outage", http.StatusServiceUnavailable, errors.ErrCodeSynthesis, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			s := newTestSynth(t, srv, nil)
			_, err := s.Synthesize(context.Background(), markup)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if appErr.Retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", appErr.Retryable, tc.retryable)
			}
			if appErr.Details["upstream_status"] != tc.status {
				t.Errorf("missing upstream status in %v", appErr.Details)
			}
			if s.bulkhead.InUse() != 0 {
				t.Error("slot leaked on failure")
			}
		})
	}
}

func TestSynthesize_RetriesThrottle(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	s := newTestSynth(t, srv, func(c *speech.Config) {
		c.Retry = &resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	})
	audio, err := s.Synthesize(context.Background(), markup)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	_ = audio.Body.Close()
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestSynthesize_BulkheadFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	s := newTestSynth(t, srv, func(c *speech.Config) { c.MaxConcurrent = 1 })
	first, err := s.Synthesize(context.Background(), markup)
	if err != nil {
		t.Fatalf("first Synthesize: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), markup); !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE while the stream is open, got %v", err)
	}
	_ = first.Body.Close()
	second, err := s.Synthesize(context.Background(), markup)
	if err != nil {
		t.Fatalf("Synthesize after close: %v", err)
	}
	_ = second.Body.Close()
}

func TestSynthesize_EmptyMarkup(t *testing.T) {
	s, _ := New(speech.Config{Region: "westeurope"}, nil)
	if _, err := s.Synthesize(context.Background(), "  "); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cognitiveservices/voices/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if !newTestSynth(t, srv, nil).IsAvailable(context.Background()) {
		t.Error("expected available")
	}
}
