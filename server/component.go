package server

import (
	"context"
	"sort"
	"strings"

	"github.com/bleitz/meditai/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// systemPaths are the probe and metadata routes registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":  true,
	"/readyz":  true,
	"/livez":   true,
	"/version": true,
	"/info":    true,
}

// Component runs a Server under the component registry.
type Component struct {
	server  *Server
	started bool
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

// Name returns the component name.
func (c *Component) Name() string { return componentName }

// Start binds the listener.
func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Stop drains in-flight requests.
func (c *Component) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}
	c.started = false
	return c.server.Stop(ctx)
}

// Health reports whether the listener is bound.
func (c *Component) Health(context.Context) component.Health {
	if !c.started {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr() + " (h2c)",
		Port:    c.server.config.Port,
	}
}

// Routes lists the registered routes: API routes by path, then system routes.
func (c *Component) Routes() []component.Route {
	ginRoutes := c.server.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}
	return routes
}

// formatHandlerName shortens Gin's handler names:
// "github.com/bleitz/meditai/api.(*Handler).Audio-fm" becomes "Handler.Audio".
func formatHandlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	// Closures: "endpoint.Health.func1" becomes "health".
	if last := parts[len(parts)-1]; strings.HasPrefix(last, "func") && len(parts) > 1 {
		return strings.ToLower(parts[len(parts)-2])
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
