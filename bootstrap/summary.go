package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bleitz/meditai/component"
)

// BusinessInfo is a business-layer entry in the summary, such as the
// meditation service and the collaborators it was built with.
type BusinessInfo struct {
	Name         string
	Type         string
	Dependencies []string
}

// Summary is the startup report printed once the application is ready.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	business        []BusinessInfo
}

// NewSummary creates a Summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackBusiness records a business-layer component.
func (s *Summary) TrackBusiness(name, kind string, dependencies ...string) {
	s.business = append(s.business, BusinessInfo{Name: name, Type: kind, Dependencies: dependencies})
}

// Write prints the summary. Infrastructure and routes come from the
// components that describe themselves; health is probed live.
func (s *Summary) Write(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var (
		infra  []component.Description
		routes []component.Route
	)
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name == "" {
					desc.Name = c.Name()
				}
				infra = append(infra, desc)
			}
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	if len(infra) > 0 {
		fmt.Fprintf(w, "\n📊 Infrastructure\n")
		for i, d := range infra {
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", branch(i, len(infra)), d.Name, d.Type, d.Details)
		}
	}

	if len(s.business) > 0 {
		fmt.Fprintf(w, "\n💼 Business Layer\n")
		for i, b := range s.business {
			fmt.Fprintf(w, "   %s %s (%s)\n", branch(i, len(s.business)), b.Name, b.Type)
			indent := "│  "
			if i == len(s.business)-1 {
				indent = "   "
			}
			for j, dep := range b.Dependencies {
				fmt.Fprintf(w, "   %s %s 🔗 %s\n", indent, branch(j, len(b.Dependencies)), dep)
			}
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-6s %s → %s\n", branch(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	if registry != nil {
		if health := registry.HealthAll(context.Background()); len(health) > 0 {
			fmt.Fprintf(w, "\n🏥 Health\n")
			for i, h := range health {
				msg := ""
				if h.Message != "" {
					msg = ": " + h.Message
				}
				fmt.Fprintf(w, "   %s %s %s %s%s\n", branch(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
			}
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	default:
		return "❌"
	}
}
