package storage

import (
	"errors"
	"fmt"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "./data/archive"
	DefaultRegion   = "us-east-1"
)

// Config selects and configures a storage backend.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`

	// BasePath is the root directory of the local backend.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// Bucket, Region and Endpoint address the s3 backend. Endpoint targets
	// S3-compatible services such as MinIO.
	Bucket         string `yaml:"bucket" mapstructure:"bucket"`
	Region         string `yaml:"region" mapstructure:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	// AccessKey and SecretKey are optional; the default AWS chain is used otherwise.
	AccessKey string `yaml:"-" mapstructure:"access_key"`
	SecretKey string `yaml:"-" mapstructure:"secret_key"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Provider == ProviderS3 && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("region is required"))
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			errs = append(errs, errors.New("access_key and secret_key must be set together"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
