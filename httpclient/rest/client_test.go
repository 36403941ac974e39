package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bleitz/meditai/httpclient"
)

type completion struct {
	ID    string `json:"id"`
	Model string `json:"model"`
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected limit=1, got %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept: application/json, got %s", got)
		}
		_ = json.NewEncoder(w).Encode(completion{ID: "c-1", Model: "gpt"})
	}))
	defer srv.Close()

	c, err := New(httpclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := Get[completion](context.Background(), c, "/models", WithQuery(map[string]string{"limit": "1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data.ID != "c-1" || resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %s", got)
		}
		if got := r.Header.Get("X-Trace"); got != "abc" {
			t.Errorf("expected request header, got %q", got)
		}
		var in completion
		_ = json.NewDecoder(r.Body).Decode(&in)
		in.ID = "c-2"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c, err := New(httpclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := Post[completion](context.Background(), c, "/chat", completion{Model: "gpt"},
		WithHeaders(map[string]string{"X-Trace": "abc"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.Data.ID != "c-2" || resp.Data.Model != "gpt" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	c, err := New(httpclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Post[completion](context.Background(), c, "/chat", completion{})
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("auth errors must not be retryable")
	}
}

func TestPost_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, _ := New(httpclient.Config{BaseURL: srv.URL})
	if _, err := Post[completion](context.Background(), c, "/chat", nil); err == nil {
		t.Fatal("expected decode error")
	}
}
