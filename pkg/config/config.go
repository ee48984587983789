// Package config manages par-io engine configuration: defaults, an optional
// JSON file, and environment variable overrides, in that order of
// increasing precedence, validated before use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/uv-rust/par-io/pkg/pario"
	"github.com/uv-rust/par-io/pkg/plog"
)

// Config holds the pipeline parameters and logging settings for a par-io
// CLI invocation or long-running service.
type Config struct {
	Params pario.Params `json:"params"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file,omitempty"`
}

// DefaultConfig returns secure, modest defaults: four producers and
// consumers, small chunking, info-level text logging to stdout.
func DefaultConfig() *Config {
	return &Config{
		Params: pario.Params{
			NumProducers:       4,
			NumConsumers:       4,
			ChunksPerProducer:  16,
			BuffersPerProducer: 2,
			BufferSize:         64 * 1024,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig builds a Config from defaults, an optional JSON file (missing
// files are silently ignored, matching the teacher's config loader), and
// PARIO_*-prefixed environment variable overrides, then validates the
// result.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", configPath, err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies PARIO_*-prefixed environment variables
// over whatever defaults/file values are already set. Invalid integer
// values are ignored rather than failing the whole load, matching the
// teacher's override style.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("PARIO_NUM_PRODUCERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Params.NumProducers = n
		}
	}
	if v := os.Getenv("PARIO_NUM_CONSUMERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Params.NumConsumers = n
		}
	}
	if v := os.Getenv("PARIO_CHUNKS_PER_PRODUCER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Params.ChunksPerProducer = n
		}
	}
	if v := os.Getenv("PARIO_BUFFERS_PER_PRODUCER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Params.BuffersPerProducer = n
		}
	}
	if v := os.Getenv("PARIO_BUFFER_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Params.BufferSize = n
		}
	}
	if v := os.Getenv("PARIO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PARIO_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("PARIO_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

// Validate checks the pipeline parameters and logging settings. It does not
// call Params.ValidateForWrite — callers writing a file must do that
// themselves once they know BufferSize must be positive for their mode.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if _, err := plog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	return nil
}

// SaveToFile writes the configuration as indented JSON, for drivers that
// want to snapshot a working set of parameters.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// BuildLogger constructs the logger described by LogLevel/LogFormat/LogFile.
func (c *Config) BuildLogger() (*plog.Logger, error) {
	level, err := plog.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	format := plog.TextFormat
	if c.LogFormat == "json" {
		format = plog.JSONFormat
	}

	output := os.Stdout
	cfg := &plog.Config{Level: level, Format: format, Output: output}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("config: open log file %s: %w", c.LogFile, err)
		}
		cfg.Output = f
	}
	return plog.NewLogger(cfg), nil
}
