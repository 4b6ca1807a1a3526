// Package config provides configuration loading and parsing for the
// autopilot engine.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrConfigNotFound    = errors.New("config: file not found")
	ErrInvalidFormat     = errors.New("config: invalid format")
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	ErrValidationFailed  = errors.New("config: validation failed")
	ErrMissingEnvVar     = errors.New("config: missing environment variable")
)

// Config is the root configuration for the autopilot engine.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Executor  ExecutorConfig  `yaml:"executor" json:"executor"`
	Autopilot AutopilotConfig `yaml:"autopilot" json:"autopilot"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// Format is the output format (json or console).
	Format string `yaml:"format" json:"format"`
}

// ExecutorConfig configures invocation resilience.
type ExecutorConfig struct {
	// MaxConcurrent limits invocations running at once.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
	// Timeout bounds each invocation.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// RetryAttempts is the retry budget for idempotent actions.
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial retry backoff.
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// BreakerFailures is the consecutive failure count that opens the
	// circuit breaker.
	BreakerFailures uint32 `yaml:"breaker_failures" json:"breaker_failures"`
}

// AutopilotConfig configures the plan/execute loop.
type AutopilotConfig struct {
	// MaxCycles bounds cycles per session; exceeding it blocks the
	// session.
	MaxCycles int `yaml:"max_cycles" json:"max_cycles"`
}

// StorageBackend selects a world store implementation.
type StorageBackend string

const (
	BackendMemory     StorageBackend = "memory"
	BackendFilesystem StorageBackend = "filesystem"
	BackendSQLite     StorageBackend = "sqlite"
	BackendBadger     StorageBackend = "badger"
	BackendRedis      StorageBackend = "redis"
)

// StorageConfig selects and configures the world store.
type StorageConfig struct {
	Backend    StorageBackend   `yaml:"backend" json:"backend"`
	Filesystem FilesystemConfig `yaml:"filesystem" json:"filesystem"`
	SQLite     SQLiteConfig     `yaml:"sqlite" json:"sqlite"`
	Badger     BadgerConfig     `yaml:"badger" json:"badger"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
}

// FilesystemConfig configures the filesystem world store.
type FilesystemConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// SQLiteConfig configures the SQLite world store.
type SQLiteConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// BadgerConfig configures the BadgerDB world store.
type BadgerConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	InMemory bool   `yaml:"in_memory" json:"in_memory"`
}

// RedisConfig configures the Redis world store.
type RedisConfig struct {
	Address   string `yaml:"address" json:"address"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// MetricsConfig configures telemetry.
type MetricsConfig struct {
	// Enabled turns OpenTelemetry metrics on.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// MeterName overrides the default meter name.
	MeterName string `yaml:"meter_name" json:"meter_name"`
}

// DefaultConfig returns the configuration used when a field is unset.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Executor: ExecutorConfig{
			MaxConcurrent:   8,
			Timeout:         2 * time.Minute,
			RetryAttempts:   3,
			RetryDelay:      500 * time.Millisecond,
			BreakerFailures: 5,
		},
		Autopilot: AutopilotConfig{
			MaxCycles: 64,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrValidationFailed, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrValidationFailed, c.Logging.Format)
	}

	if c.Executor.MaxConcurrent < 0 {
		return fmt.Errorf("%w: max_concurrent must not be negative", ErrValidationFailed)
	}
	if c.Autopilot.MaxCycles < 0 {
		return fmt.Errorf("%w: max_cycles must not be negative", ErrValidationFailed)
	}

	switch c.Storage.Backend {
	case "", BackendMemory, BackendFilesystem, BackendSQLite, BackendBadger, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrValidationFailed, c.Storage.Backend)
	}

	switch c.Storage.Backend {
	case BackendFilesystem:
		if c.Storage.Filesystem.Dir == "" {
			return fmt.Errorf("%w: filesystem backend requires storage.filesystem.dir", ErrValidationFailed)
		}
	case BackendSQLite:
		if c.Storage.SQLite.DSN == "" {
			return fmt.Errorf("%w: sqlite backend requires storage.sqlite.dsn", ErrValidationFailed)
		}
	case BackendBadger:
		if c.Storage.Badger.Dir == "" && !c.Storage.Badger.InMemory {
			return fmt.Errorf("%w: badger backend requires storage.badger.dir or in_memory", ErrValidationFailed)
		}
	case BackendRedis:
		if c.Storage.Redis.Address == "" {
			return fmt.Errorf("%w: redis backend requires storage.redis.address", ErrValidationFailed)
		}
	}

	return nil
}

// applyDefaults fills unset fields from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Executor.MaxConcurrent == 0 {
		c.Executor.MaxConcurrent = defaults.Executor.MaxConcurrent
	}
	if c.Executor.Timeout == 0 {
		c.Executor.Timeout = defaults.Executor.Timeout
	}
	if c.Executor.RetryAttempts == 0 {
		c.Executor.RetryAttempts = defaults.Executor.RetryAttempts
	}
	if c.Executor.RetryDelay == 0 {
		c.Executor.RetryDelay = defaults.Executor.RetryDelay
	}
	if c.Executor.BreakerFailures == 0 {
		c.Executor.BreakerFailures = defaults.Executor.BreakerFailures
	}
	if c.Autopilot.MaxCycles == 0 {
		c.Autopilot.MaxCycles = defaults.Autopilot.MaxCycles
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
}
