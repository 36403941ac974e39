package storage

import (
	"context"
	"fmt"

	"github.com/bleitz/meditai/component"
	"github.com/bleitz/meditai/logger"
)

// Component owns a Storage for the lifetime of the service.
type Component struct {
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component. The backend is built on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health probes a sentinel key to prove the backend answers.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.storage == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "storage not initialized"
		return h
	}
	if _, err := c.storage.Exists(ctx, ".health"); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("health probe failed: %v", err)
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	switch c.cfg.Provider {
	case ProviderLocal:
		details += " path=" + c.cfg.BasePath
	case ProviderS3:
		details += " bucket=" + c.cfg.Bucket + " region=" + c.cfg.Region
	}
	return component.Description{Name: "Archive storage", Type: "storage", Details: details}
}
