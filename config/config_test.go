package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bleitz/meditai/logger"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Speech        struct {
		Region string `mapstructure:"region"`
		Voice  string `mapstructure:"voice"`
	} `mapstructure:"speech"`
	Timing struct {
		WordsPerMinute int `mapstructure:"words_per_minute"`
	} `mapstructure:"timing"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "meditai"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got level %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "meditai", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "meditai", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "meditai", Environment: "qa"}, "config.environment must be one of"},
		{"invalid logging", ServiceConfig{Name: "meditai", Environment: "production", Logging: logger.Config{Level: "loud"}}, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: meditai
environment: staging
speech:
  region: westeurope
  voice: en-US-JennyNeural
timing:
  words_per_minute: 80
`)

	var cfg testConfig
	if err := LoadConfig("meditai", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "meditai" || cfg.Environment != "staging" {
		t.Errorf("service config not loaded: %+v", cfg.ServiceConfig)
	}
	if cfg.Speech.Region != "westeurope" {
		t.Errorf("expected region westeurope, got %q", cfg.Speech.Region)
	}
	if cfg.Timing.WordsPerMinute != 80 {
		t.Errorf("expected 80 wpm, got %d", cfg.Timing.WordsPerMinute)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: meditai\nspeech:\n  region: westeurope\n")
	t.Setenv("SPEECH_REGION", "eastus")
	t.Setenv("TIMING_WORDS_PER_MINUTE", "85")

	var cfg testConfig
	if err := LoadConfig("meditai", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Speech.Region != "eastus" {
		t.Errorf("expected env override eastus, got %q", cfg.Speech.Region)
	}
	if cfg.Timing.WordsPerMinute != 85 {
		t.Errorf("expected env override 85, got %d", cfg.Timing.WordsPerMinute)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("meditai", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestResolver_WithMockFS(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]bool
		wantConfig string
		wantEnv    string
	}{
		{
			name:       "cmd directory",
			files:      map[string]bool{"./cmd/meditai/config.yml": true, "cmd/meditai/.env": true},
			wantConfig: "./cmd/meditai/config.yml",
			wantEnv:    "cmd/meditai/.env",
		},
		{
			name:       "root config wins",
			files:      map[string]bool{"./config.yml": true, "./cmd/meditai/config.yml": true, ".env": true},
			wantConfig: "./config.yml",
			wantEnv:    ".env",
		},
		{
			name:  "nothing found",
			files: map[string]bool{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{FileSystem: &mockFS{files: tc.files}}
			got := r.ResolveFiles("meditai", LoaderConfig{})
			if got.ConfigFile != tc.wantConfig {
				t.Errorf("config file = %q, want %q", got.ConfigFile, tc.wantConfig)
			}
			if got.EnvFile != tc.wantEnv {
				t.Errorf("env file = %q, want %q", got.EnvFile, tc.wantEnv)
			}
		})
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("ARCHIVE_S3_BUCKET")
	for _, want := range []string{"archive_s3_bucket", "archive.s3.bucket", "archive.s3_bucket", "archive_s3.bucket"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing variant %q in %v", want, got)
		}
	}
	if got := envKeyVariants("PORT"); len(got) != 1 || got[0] != "port" {
		t.Errorf("single word key should map to itself, got %v", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
