package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bleitz/meditai/component"
	apperrors "github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
)

func testConfig() Config {
	cfg := Config{Host: "127.0.0.1", Port: 0, MaxBodySize: "1KB"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	return cfg
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.WriteTimeout != 0 || cfg.MaxBodySize != "1MB" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"timeout", func(c *Config) { c.IdleTimeout = -time.Second }},
		{"body size", func(c *Config) { c.MaxBodySize = "huge" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServer_Handler(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.RegisterDefaultEndpoints("meditai", nil)
	s.API().POST("/echo", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, string(data))
	})

	t.Run("data envelope and request id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("hi")))
		if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"data":"hi"}` {
			t.Errorf("got %d %s", rr.Code, rr.Body.String())
		}
		if rr.Header().Get("X-Request-Id") == "" {
			t.Error("missing request id")
		}
	})

	t.Run("body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", io.NopCloser(strings.NewReader(strings.Repeat("x", 2000))))
		req.ContentLength = -1
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d", rr.Code)
		}
		var body apperrors.ErrorResponse
		_ = json.Unmarshal(rr.Body.Bytes(), &body)
		if body.Error.Code != apperrors.ErrCodePayloadTooLarge {
			t.Errorf("code = %s", body.Error.Code)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
		if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "NOT_FOUND") {
			t.Errorf("got %d %s", rr.Code, rr.Body.String())
		}
	})
}

func TestServer_RateLimitedAPI(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = 1
	cfg.RateLimit.Burst = 1
	s := New(cfg, logger.Nop())
	s.RegisterDefaultEndpoints("meditai", nil)
	s.API().GET("/ping", func(c *gin.Context) { RespondOK(c, "pong") })

	codes := make([]int, 0, 3)
	for _, path := range []string{"/api/ping", "/api/ping", "/livez"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		codes = append(codes, rr.Code)
	}
	if fmt.Sprint(codes) != "[200 429 200]" {
		t.Errorf("codes = %v", codes)
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.RegisterDefaultEndpoints("meditai", func(context.Context) []component.Health { return nil })
	c := NewComponent(s)

	if c.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("unstarted server reported healthy")
	}
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = c.Stop(ctx) }()

	resp, err := http.Get("http://" + s.Addr() + "/livez")
	if err != nil {
		t.Fatalf("GET /livez: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if c.Health(ctx).Status != component.StatusHealthy {
		t.Error("started server reported unhealthy")
	}
	if !strings.HasPrefix(c.Describe().Details, "127.0.0.1:") {
		t.Errorf("details = %q", c.Describe().Details)
	}
}

func TestComponent_Routes(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.RegisterDefaultEndpoints("meditai", nil)
	api := s.API()
	api.POST("/script", func(*gin.Context) {})
	api.GET("/archive/:id", func(*gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) != 7 {
		t.Fatalf("got %d routes", len(routes))
	}
	if routes[0].Path != "/api/archive/:id" || routes[1].Path != "/api/script" {
		t.Errorf("api routes not first: %+v", routes[:2])
	}
	for _, r := range routes[2:] {
		if !systemPaths[r.Path] {
			t.Errorf("unexpected route order %+v", routes)
		}
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/bleitz/meditai/api.(*Handler).Audio-fm":        "Handler.Audio",
		"github.com/bleitz/meditai/server/endpoint.Health.func1":   "health",
		"github.com/bleitz/meditai/server/endpoint.Liveness.func1": "liveness",
		"main.handler": "handler",
	}
	for in, want := range tests {
		if got := formatHandlerName(in); got != want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
