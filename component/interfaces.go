// Package component manages the start, stop and health of the long-lived
// pieces of the service: storage, archive, speech engine, language model
// and HTTP server.
package component

import "context"

// HealthStatus is the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded means the component serves some requests but not all,
	// e.g. the audio pipeline without a configured language model.
	StatusDegraded HealthStatus = "degraded"
)

// Health is the health report of one component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed dependency.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is the one-line startup summary of a component.
type Description struct {
	// Name is the display name. Empty falls back to Component.Name.
	Name string
	// Type groups components in the summary ("storage", "speech", "llm", "server").
	Type    string
	Details string
	Port    int
}

// Describable is implemented by components that report themselves in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is a registered HTTP route.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by the server component to list its routes.
type RouteProvider interface {
	Routes() []Route
}
