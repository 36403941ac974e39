package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bleitz/meditai/archive"
	"github.com/bleitz/meditai/component"
	"github.com/bleitz/meditai/llm"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/observability"
	"github.com/bleitz/meditai/scriptgen"
	"github.com/bleitz/meditai/speech"
	"github.com/bleitz/meditai/timing"

	// Providers selectable from config.
	_ "github.com/bleitz/meditai/llm/openai"
	_ "github.com/bleitz/meditai/speech/azure"
	_ "github.com/bleitz/meditai/storage/local"
	_ "github.com/bleitz/meditai/storage/s3"
)

// Pipeline is the component that owns the meditation service. It starts
// after storage and the archive and before the HTTP server, so mount runs
// while no request can arrive yet.
type Pipeline struct {
	cfg     *Config
	archive *archive.Component
	mount   func(*meditation.Service)
	log     *logger.Logger

	service  *meditation.Service
	scripts  bool
	speaking bool
}

var (
	_ component.Component   = (*Pipeline)(nil)
	_ component.Describable = (*Pipeline)(nil)
)

// NewPipeline creates the pipeline component. archiveComp may be nil when
// archiving is disabled. mount, if set, receives the service once built.
func NewPipeline(cfg *Config, archiveComp *archive.Component, mount func(*meditation.Service), log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{cfg: cfg, archive: archiveComp, mount: mount, log: log}
}

// Service returns the meditation service, or nil before Start.
func (p *Pipeline) Service() *meditation.Service { return p.service }

func (p *Pipeline) Name() string { return "pipeline" }

// Start builds the language model, speech engine and compiler. A missing
// credential leaves the matching stage unset; requests that need it then
// fail with SERVICE_UNAVAILABLE instead of failing startup.
func (p *Pipeline) Start(_ context.Context) error {
	deps := meditation.Deps{}

	if p.cfg.LLM.APIKey != "" {
		adapter, err := llm.New(p.cfg.LLM)
		if err != nil {
			return fmt.Errorf("pipeline start: %w", err)
		}
		deps.Scripts = scriptgen.New(adapter, p.cfg.Script, p.log)
		p.scripts = true
	} else {
		p.log.Warn("No language model key configured, script generation disabled")
	}

	if p.cfg.Speech.Key != "" {
		engine, err := speech.New(p.cfg.Speech, p.log)
		if err != nil {
			return fmt.Errorf("pipeline start: %w", err)
		}
		deps.Speech = engine
		p.speaking = true
	} else {
		p.log.Warn("No speech key configured, synthesis disabled")
	}

	compiler, err := timing.NewCompiler(p.cfg.Timing)
	if err != nil {
		return fmt.Errorf("pipeline start: %w", err)
	}
	deps.Compiler = compiler

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return fmt.Errorf("pipeline start: %w", err)
	}
	deps.Metrics = metrics

	if p.archive != nil {
		deps.Archive = p.archive.Archive()
	}

	svc, err := meditation.New(deps, p.cfg.Pipeline, p.log)
	if err != nil {
		return fmt.Errorf("pipeline start: %w", err)
	}
	p.service = svc
	if p.mount != nil {
		p.mount(svc)
	}
	return nil
}

func (p *Pipeline) Stop(_ context.Context) error {
	p.service = nil
	return nil
}

// Health is degraded while a stage is disabled for lack of credentials.
func (p *Pipeline) Health(_ context.Context) component.Health {
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	if p.service == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "pipeline not initialized"
		return h
	}
	var disabled []string
	if !p.scripts {
		disabled = append(disabled, "script generation")
	}
	if !p.speaking {
		disabled = append(disabled, "synthesis")
	}
	if len(disabled) > 0 {
		h.Status = component.StatusDegraded
		h.Message = strings.Join(disabled, " and ") + " disabled"
	}
	return h
}

func (p *Pipeline) Describe() component.Description {
	details := fmt.Sprintf("llm=%s speech=%s voice=%s wpm=%d",
		p.cfg.LLM.Dialect, p.cfg.Speech.Provider, p.cfg.Voice.Name, p.cfg.Timing.WordsPerMinute)
	if p.archive != nil {
		details += " archive=on"
	}
	return component.Description{Name: "Meditation pipeline", Type: "pipeline", Details: details}
}
