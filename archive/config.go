package archive

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/bleitz/meditai/storage"
)

const (
	DefaultPrefix           = "clips"
	DefaultMaxBytes         = 64 << 20
	DefaultCompressionLevel = 3
)

// Config configures the audio archive.
type Config struct {
	// Enabled turns on archiving. POST /api/audio with file=true and
	// GET /api/archive/:id require it.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Prefix is prepended to every key, e.g. clips/<id>.mp3.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// MaxBytes caps the size of an archived clip.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`

	// CompressionLevel is the zstd level (1 to 22) for the markup sidecar.
	CompressionLevel int `yaml:"compression_level" mapstructure:"compression_level"`

	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.CompressionLevel <= 0 {
		c.CompressionLevel = DefaultCompressionLevel
	}
	c.Storage.ApplyDefaults()
}

// Validate checks the configuration. A disabled archive is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.CompressionLevel > 22 {
		return fmt.Errorf("archive: compression_level must be between 1 and 22")
	}
	return c.Storage.Validate()
}

func (c *Config) encoderLevel() zstd.EncoderLevel {
	return zstd.EncoderLevelFromZstd(c.CompressionLevel)
}
