// Package config provides configuration loading and management for geomdata.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"geomdata/internal/logging"
	"geomdata/pkg/timegeometry"
)

// ErrInvalidConfig is returned by Validate and LoadConfig for out-of-range values.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "geomdata.yaml"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Codec parameters
	Codec struct {
		// Precision is the number of significant digits written per number
		Precision int `yaml:"precision"`

		// Strict rejects documents that needed any recovery while decoding
		Strict bool `yaml:"strict"`

		// WriterName is recorded in the <Version Writer> attribute
		WriterName string `yaml:"writerName"`
	} `yaml:"codec"`

	// Time geometry parameters
	TimeGeometry struct {
		// TimePointPolicy is clamp or strict
		TimePointPolicy string `yaml:"timePointPolicy"`
	} `yaml:"timeGeometry"`

	// Logging parameters
	Logging struct {
		// Level is debug, info, warn or error
		Level string `yaml:"level"`

		// Format is text, console (an alias of text) or json
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Codec.Precision = 12
	cfg.Codec.Strict = false
	cfg.Codec.WriterName = "geomdata"

	cfg.TimeGeometry.TimePointPolicy = timegeometry.ClampTimePoints.String()

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	return cfg
}

// Validate checks every value against its allowed range.
func (c *Config) Validate() error {
	var errs []error
	if c.Codec.Precision < 1 || c.Codec.Precision > 17 {
		errs = append(errs, fmt.Errorf("%w: codec.precision %d outside 1..17", ErrInvalidConfig, c.Codec.Precision))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("%w: timeGeometry.timePointPolicy: %w", ErrInvalidConfig, err))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Policy returns the configured time-point policy.
func (c *Config) Policy() (timegeometry.TimePointPolicy, error) {
	return timegeometry.ParseTimePointPolicy(c.TimeGeometry.TimePointPolicy)
}

// LogOptions returns the logger options for the configured logging section.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.Logging.Level, Format: c.Logging.Format}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
