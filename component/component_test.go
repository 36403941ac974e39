package component

import (
	"context"
	"errors"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "storage"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&mockComponent{name: "storage"}); err == nil {
		t.Error("expected duplicate registration error")
	}
	if r.Get("storage") == nil || r.Get("missing") != nil {
		t.Error("Get returned unexpected result")
	}
}

func TestLifecycleOrder(t *testing.T) {
	var events []string
	r := NewRegistry()
	for _, name := range []string{"storage", "archive", "server"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := []string{"start:storage", "start:archive", "start:server", "stop:server", "stop:archive", "stop:storage"}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestStartAll_FailureStopsStartedOnly(t *testing.T) {
	var events []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "storage", events: &events})
	_ = r.Register(&mockComponent{name: "speech", events: &events, startErr: errors.New("no region")})
	_ = r.Register(&mockComponent{name: "server", events: &events})

	ctx := context.Background()
	if err := r.StartAll(ctx); err == nil {
		t.Fatal("expected start error")
	}
	events = nil
	_ = r.StopAll(ctx)
	if len(events) != 1 || events[0] != "stop:storage" {
		t.Errorf("only started components should stop, got %v", events)
	}
}

func TestStopAll_JoinsErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errors.New("a failed")})
	_ = r.Register(&mockComponent{name: "b", stopErr: errors.New("b failed")})
	ctx := context.Background()
	_ = r.StartAll(ctx)

	err := r.StopAll(ctx)
	if err == nil {
		t.Fatal("expected stop errors")
	}
	if got := err.Error(); got != "failed to stop b: b failed\nfailed to stop a: a failed" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestHealthAll_And_Overall(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "storage", health: Health{Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "llm", health: Health{Name: "llm", Status: StatusDegraded, Message: "no api key"}})

	reports := r.HealthAll(context.Background())
	if len(reports) != 2 || reports[0].Name != "storage" {
		t.Fatalf("unexpected reports %+v", reports)
	}

	tests := []struct {
		name    string
		reports []Health
		want    HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"degraded", reports, StatusDegraded},
		{"unhealthy wins", append(reports, Health{Status: StatusUnhealthy}), StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overall(tc.reports); got != tc.want {
				t.Errorf("Overall = %s, want %s", got, tc.want)
			}
		})
	}
}
