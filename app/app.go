// Package app wires the configuration, components and HTTP handlers of the
// meditai service into a bootstrap application.
package app

import (
	"context"
	"fmt"

	"github.com/bleitz/meditai/api"
	"github.com/bleitz/meditai/archive"
	"github.com/bleitz/meditai/bootstrap"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/observability"
	"github.com/bleitz/meditai/server"
	"github.com/bleitz/meditai/storage"
)

// App is a bootstrap application running the meditation pipeline.
type App struct {
	*bootstrap.App[*Config]

	pipeline *Pipeline
	server   *server.Server
}

// NewServer builds the HTTP service. Components start in the order
// observability, storage, archive, pipeline, server.
func NewServer(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	return build(cfg, true, opts)
}

// NewTask builds the pipeline without the HTTP server, for one-shot
// commands run with RunTask.
func NewTask(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	return build(cfg, false, opts)
}

func build(cfg *Config, serve bool, opts []bootstrap.Option) (*App, error) {
	base, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a := &App{App: base}
	log := base.Logger

	if err := base.RegisterComponent(observability.NewTelemetry(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)); err != nil {
		return nil, err
	}

	var archiveComp *archive.Component
	if cfg.Archive.Enabled {
		store := storage.NewComponent(cfg.Archive.Storage, log)
		archiveComp = archive.NewComponent(cfg.Archive, store, log)
		if err := base.RegisterComponent(store); err != nil {
			return nil, err
		}
		if err := base.RegisterComponent(archiveComp); err != nil {
			return nil, err
		}
	}

	var mount func(*meditation.Service)
	if serve {
		a.server = server.New(cfg.Server, log)
		mount = func(svc *meditation.Service) {
			api.NewHandler(svc, log).Register(a.server.API())
			a.server.RegisterDefaultEndpoints(cfg.Name, base.Components.HealthAll)
		}
	}

	a.pipeline = NewPipeline(cfg, archiveComp, mount, log)
	if err := base.RegisterComponent(a.pipeline); err != nil {
		return nil, err
	}
	if a.server != nil {
		if err := base.RegisterComponent(server.NewComponent(a.server)); err != nil {
			return nil, err
		}
	}

	base.OnConfigure(func(_ context.Context, b *bootstrap.App[*Config]) error {
		if a.pipeline.Service() == nil {
			return fmt.Errorf("pipeline did not start")
		}
		deps := []string{"timing", "speech", "llm"}
		if archiveComp != nil {
			deps = append(deps, "archive")
		}
		b.Summary.TrackBusiness("MeditationService", "service", deps...)
		if a.server != nil {
			b.Summary.TrackBusiness("api.Handler", "handler", "MeditationService")
		}
		return nil
	})
	return a, nil
}

// Service returns the meditation service once the application has started.
func (a *App) Service() *meditation.Service { return a.pipeline.Service() }

// Server returns the HTTP server, or nil for task applications.
func (a *App) Server() *server.Server { return a.server }
