package config

import (
	"fmt"
	"io"

	"github.com/storyforge/autopilot-go/application"
	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/logging"
	"github.com/storyforge/autopilot-go/infrastructure/resilience"
	badgerstore "github.com/storyforge/autopilot-go/infrastructure/storage/badger"
	"github.com/storyforge/autopilot-go/infrastructure/storage/filesystem"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
	redisstore "github.com/storyforge/autopilot-go/infrastructure/storage/redis"
	sqlitestore "github.com/storyforge/autopilot-go/infrastructure/storage/sqlite"
	"github.com/storyforge/autopilot-go/infrastructure/telemetry"
)

// Build assembles an autopilot from the configuration. The registry
// and invoker are supplied by the caller since actions and
// capabilities are code, not configuration.
func Build(cfg Config, registry action.Registry, invoker capability.Invoker) (*application.Autopilot, error) {
	cfg.applyDefaults()

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	executor := resilience.NewExecutor(
		resilience.WithMaxConcurrent(cfg.Executor.MaxConcurrent),
		resilience.WithTimeout(cfg.Executor.Timeout),
		resilience.WithRetryAttempts(cfg.Executor.RetryAttempts),
		resilience.WithRetryDelay(cfg.Executor.RetryDelay),
		resilience.WithBreakerFailures(cfg.Executor.BreakerFailures),
	)

	var metrics telemetry.Metrics
	if cfg.Metrics.Enabled {
		mc := telemetry.DefaultMetricsConfig()
		if cfg.Metrics.MeterName != "" {
			mc.MeterName = cfg.Metrics.MeterName
		}
		metrics = telemetry.NewMetricsProvider(mc)
	} else {
		metrics = &telemetry.NoopMetricsProvider{}
	}

	store, err := BuildStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return application.NewAutopilot(application.Config{
		Registry:  registry,
		Invoker:   invoker,
		Store:     store,
		Executor:  executor,
		Metrics:   metrics,
		MaxCycles: cfg.Autopilot.MaxCycles,
	})
}

// BuildStore creates the world store selected by the storage
// configuration.
func BuildStore(cfg StorageConfig) (world.Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return memory.NewWorldStore(), nil

	case BackendFilesystem:
		return filesystem.NewWorldStore(cfg.Filesystem.Dir)

	case BackendSQLite:
		sc := sqlitestore.DefaultConfig()
		sc.DSN = cfg.SQLite.DSN
		return sqlitestore.NewWorldStore(sc)

	case BackendBadger:
		bc := badgerstore.DefaultConfig()
		bc.Dir = cfg.Badger.Dir
		bc.InMemory = cfg.Badger.InMemory
		return badgerstore.NewWorldStore(bc)

	case BackendRedis:
		rc := redisstore.DefaultConfig()
		rc.Address = cfg.Redis.Address
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		if cfg.Redis.KeyPrefix != "" {
			rc.KeyPrefix = cfg.Redis.KeyPrefix
		}
		return redisstore.NewWorldStore(rc)

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrValidationFailed, cfg.Backend)
	}
}

// CloseStore closes a store if it holds external resources.
func CloseStore(store world.Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
