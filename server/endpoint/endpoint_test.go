package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bleitz/meditai/component"
)

func serve(t *testing.T, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/", h)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rr.Code, body
}

func checker(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(s), Status: s}
		}
		return out
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantCode   int
		wantStatus string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"healthy", checker(component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, Health("meditai", tt.checker))
			if code != tt.wantCode || body["status"] != tt.wantStatus {
				t.Errorf("got %d %v, want %d %s", code, body["status"], tt.wantCode, tt.wantStatus)
			}
			if body["service"] != "meditai" {
				t.Errorf("service = %v", body["service"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if code, body := serve(t, Readiness("meditai", checker(component.StatusDegraded))); code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("degraded: %d %v", code, body)
	}
	if code, body := serve(t, Readiness("meditai", checker(component.StatusUnhealthy))); code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Errorf("unhealthy: %d %v", code, body)
	}
}

func TestLivenessVersionInfo(t *testing.T) {
	if code, body := serve(t, Liveness("meditai")); code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("liveness: %d %v", code, body)
	}
	if _, body := serve(t, Version()); body["version"] == "" || body["version"] == nil {
		t.Errorf("version missing: %v", body)
	}
	_, body := serve(t, Info("meditai"))
	for _, key := range []string{"service", "version", "uptime", "heap", "goroutines"} {
		if _, ok := body[key]; !ok {
			t.Errorf("info missing %s", key)
		}
	}
}
