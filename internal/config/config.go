// Package config loads the engine's runtime configuration.
//
// Configuration is a single YAML file with environment variable overrides on
// the handful of knobs operators change per deployment. A missing file is not
// an error; defaults describe a working single-process engine.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/flowline-dev/flowline/pkg/errors"
)

// History backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the complete Flowline configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Engine    EngineConfig    `yaml:"engine"`
	History   HistoryConfig   `yaml:"history"`
	Workflows WorkflowsConfig `yaml:"workflows"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Environment: FLOWLINE_LOG_LEVEL
	// Default: info
	Level string `yaml:"level,omitempty"`

	// Format is json or text.
	// Default: json
	Format string `yaml:"format,omitempty"`
}

// EngineConfig configures workflow execution.
type EngineConfig struct {
	// Parallelism bounds concurrently dispatched steps in parallel mode.
	// Environment: FLOWLINE_PARALLELISM
	// Default: 4
	Parallelism int `yaml:"parallelism,omitempty"`
}

// HistoryConfig configures execution record storage.
type HistoryConfig struct {
	// Backend is memory or sqlite.
	// Default: memory
	Backend string `yaml:"backend,omitempty"`

	// Path is the sqlite database file. Required when Backend is sqlite.
	// Environment: FLOWLINE_HISTORY_PATH
	Path string `yaml:"path,omitempty"`
}

// WorkflowsConfig configures definition loading.
type WorkflowsConfig struct {
	// Dir is the directory of YAML workflow definitions. Empty disables
	// definition loading; the builtin templates remain available.
	// Environment: FLOWLINE_WORKFLOWS_DIR
	Dir string `yaml:"dir,omitempty"`

	// Watch reloads definitions from Dir as files change.
	// Default: false
	Watch bool `yaml:"watch,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	// Environment: FLOWLINE_METRICS_ADDR
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Engine:  EngineConfig{Parallelism: 4},
		History: HistoryConfig{Backend: BackendMemory},
	}
}

// Load reads the configuration at path, applies environment overrides, and
// validates the result. An empty path or missing file yields the defaults
// with overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, &errors.ConfigError{Key: "file", Reason: "cannot read " + path, Cause: err}
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &errors.ConfigError{Key: "file", Reason: "cannot parse " + path, Cause: err}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers FLOWLINE_* environment overrides onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("FLOWLINE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FLOWLINE_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.Parallelism = n
		}
	}
	if v := os.Getenv("FLOWLINE_HISTORY_PATH"); v != "" {
		c.History.Backend = BackendSQLite
		c.History.Path = v
	}
	if v := os.Getenv("FLOWLINE_WORKFLOWS_DIR"); v != "" {
		c.Workflows.Dir = v
	}
	if v := os.Getenv("FLOWLINE_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &errors.ConfigError{Key: "log.level", Reason: "must be debug, info, warn, or error"}
	}

	switch c.Log.Format {
	case "", "json", "text":
	default:
		return &errors.ConfigError{Key: "log.format", Reason: "must be json or text"}
	}

	if c.Engine.Parallelism < 1 {
		return &errors.ConfigError{Key: "engine.parallelism", Reason: "must be at least 1"}
	}

	switch c.History.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.History.Path == "" {
			return &errors.ConfigError{Key: "history.path", Reason: "required when history.backend is sqlite"}
		}
	default:
		return &errors.ConfigError{Key: "history.backend", Reason: "must be memory or sqlite"}
	}

	if c.Workflows.Watch && c.Workflows.Dir == "" {
		return &errors.ConfigError{Key: "workflows.watch", Reason: "requires workflows.dir"}
	}
	return nil
}
