package testutil

import (
	"context"
	"testing"

	"github.com/bleitz/meditai/component"
)

// THelper ties component lifecycles to a test.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps t.
//
//	func TestArchive(t *testing.T) {
//	    testutil.T(t).Setup(storageComponent, archiveComponent)
//	}
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context used to start and stop components.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts the components in order and stops them in reverse order when
// the test ends.
func (h *THelper) Setup(components ...component.Component) {
	h.t.Helper()
	for _, c := range components {
		if err := c.Start(h.ctx); err != nil {
			h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
		}
		h.t.Cleanup(func() {
			if err := c.Stop(h.ctx); err != nil {
				h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
			}
		})
	}
}

// RequireHealthy fails the test unless c reports healthy.
func (h *THelper) RequireHealthy(c component.Component) {
	h.t.Helper()
	if health := c.Health(h.ctx); health.Status != component.StatusHealthy {
		h.t.Fatalf("component %s is %s: %s", c.Name(), health.Status, health.Message)
	}
}
