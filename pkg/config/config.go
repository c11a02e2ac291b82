// Package config provides the unified configuration for the Quasar
// runtime: the executor's concurrency bound and timeouts, pool sizing
// defaults, and observability settings, with YAML file loading and
// environment variable substitution.
package config

import (
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// RuntimeConfig is the top-level configuration structure.
type RuntimeConfig struct {
	Executor      ExecutorConfig      `yaml:"executor" json:"executor"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ExecutorConfig controls the bounded command executor.
type ExecutorConfig struct {
	// MaxConcurrentExecutions bounds in-flight executions; excess queues FIFO
	MaxConcurrentExecutions int `yaml:"max_concurrent_executions" json:"max_concurrent_executions"`
	// DefaultTimeout applies when an execution carries no explicit timeout;
	// zero disables the timer
	DefaultTimeout time.Duration `yaml:"default_timeout" json:"default_timeout"`
	// ShutdownGrace bounds how long Shutdown waits for in-flight work
	ShutdownGrace time.Duration `yaml:"shutdown_grace" json:"shutdown_grace"`
}

// UnmarshalYAML decodes durations from strings like "30s" and leaves
// fields absent from the document at their current values.
func (c *ExecutorConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		MaxConcurrentExecutions *int    `yaml:"max_concurrent_executions"`
		DefaultTimeout          *string `yaml:"default_timeout"`
		ShutdownGrace           *string `yaml:"shutdown_grace"`
	}{}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.MaxConcurrentExecutions != nil {
		c.MaxConcurrentExecutions = *raw.MaxConcurrentExecutions
	}
	if raw.DefaultTimeout != nil {
		d, err := time.ParseDuration(*raw.DefaultTimeout)
		if err != nil {
			return qerrors.Wrap(err, qerrors.KindConfig, "invalid default_timeout")
		}
		c.DefaultTimeout = d
	}
	if raw.ShutdownGrace != nil {
		d, err := time.ParseDuration(*raw.ShutdownGrace)
		if err != nil {
			return qerrors.Wrap(err, qerrors.KindConfig, "invalid shutdown_grace")
		}
		c.ShutdownGrace = d
	}
	return nil
}

// ObservabilityConfig controls logging and metrics.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics activates Prometheus gauge refresh for pools
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
}

// Default returns the runtime defaults.
func Default() RuntimeConfig {
	return RuntimeConfig{
		Executor: ExecutorConfig{
			MaxConcurrentExecutions: runtime.NumCPU() * 2,
			DefaultTimeout:          30 * time.Second,
			ShutdownGrace:           10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogEncoding:   "json",
			EnableMetrics: true,
		},
	}
}

// Validate checks the configuration for usable values.
func (c RuntimeConfig) Validate() error {
	if c.Executor.MaxConcurrentExecutions <= 0 {
		return qerrors.Newf(qerrors.KindConfig,
			"max_concurrent_executions must be positive, got %d",
			c.Executor.MaxConcurrentExecutions)
	}
	if c.Executor.DefaultTimeout < 0 {
		return qerrors.New(qerrors.KindConfig, "default_timeout must not be negative")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return qerrors.Newf(qerrors.KindConfig,
			"log_level must be one of debug, info, warn, error, got %q",
			c.Observability.LogLevel)
	}
	return nil
}
