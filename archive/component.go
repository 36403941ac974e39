package archive

import (
	"context"
	"fmt"

	"github.com/bleitz/meditai/component"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/storage"
)

// Component builds the archive once its storage backend has started.
type Component struct {
	cfg     Config
	store   *storage.Component
	archive *Archive
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates an archive component over store. Register store
// before this component so it starts first.
func NewComponent(cfg Config, store *storage.Component, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, store: store, log: log}
}

// Archive returns the archive, or nil before Start.
func (c *Component) Archive() *Archive { return c.archive }

func (c *Component) Name() string { return "archive" }

func (c *Component) Start(_ context.Context) error {
	if c.store.Storage() == nil {
		return fmt.Errorf("archive start: storage not started")
	}
	a, err := New(c.store.Storage(), c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("archive start: %w", err)
	}
	c.archive = a
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	if c.archive == nil {
		return nil
	}
	err := c.archive.Close()
	c.archive = nil
	return err
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.archive == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "archive not initialized"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
