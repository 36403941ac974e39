package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/bleitz/meditai/archive"
	"github.com/bleitz/meditai/config"
	"github.com/bleitz/meditai/llm"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/observability"
	"github.com/bleitz/meditai/scriptgen"
	"github.com/bleitz/meditai/server"
	"github.com/bleitz/meditai/speech"
	"github.com/bleitz/meditai/ssml"
	"github.com/bleitz/meditai/timing"
	"github.com/bleitz/meditai/validation"
	"github.com/bleitz/meditai/version"
)

// ServiceName names the service in logs, config search paths and telemetry.
const ServiceName = "meditai"

// Config is the complete service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	LLM           llm.Config           `yaml:"llm" mapstructure:"llm"`
	Script        scriptgen.Options    `yaml:"script" mapstructure:"script"`
	Speech        speech.Config        `yaml:"speech" mapstructure:"speech"`
	Voice         ssml.Voice           `yaml:"voice" mapstructure:"voice"`
	Timing        timing.Options       `yaml:"timing" mapstructure:"timing"`
	Pipeline      meditation.Config    `yaml:"pipeline" mapstructure:"pipeline"`
	Limits        meditation.Limits    `yaml:"limits" mapstructure:"limits"`
	Archive       archive.Config       `yaml:"archive" mapstructure:"archive"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// Secrets are the credentials read from the environment. Set values take
// precedence over anything in the config file.
type Secrets struct {
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	SpeechKey    string `env:"AZURE_SPEECH_KEY"`
	SpeechRegion string `env:"AZURE_SPEECH_REGION"`
}

// ApplyDefaults fills zero values in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.LLM.ApplyDefaults()
	c.Speech.ApplyDefaults()
	c.Voice.ApplyDefaults()
	c.Timing.Voice = c.Voice
	c.Timing.ApplyDefaults()
	c.Limits.ApplyDefaults()
	c.Pipeline.Limits = c.Limits
	c.Pipeline.ApplyDefaults()
	c.Archive.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, v := range []interface{ Validate() error }{
		&c.Server,
		&c.LLM,
		&c.Timing,
		&c.Limits,
		&c.Archive,
		&c.Observability,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplySecrets copies the set secrets over the file values.
func (c *Config) ApplySecrets(s Secrets) {
	if s.OpenAIKey != "" {
		c.LLM.APIKey = s.OpenAIKey
	}
	if s.SpeechKey != "" {
		c.Speech.Key = s.SpeechKey
	}
	if s.SpeechRegion != "" {
		c.Speech.Region = s.SpeechRegion
	}
}

// Load reads the config file and .env file, then overlays environment
// variables and secrets. configFile may be empty to use the search path.
func Load(configFile string) (*Config, error) {
	cfg := &Config{}
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	cfg.ApplySecrets(secrets)
	return cfg, nil
}
