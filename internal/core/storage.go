package core

import (
	"context"
	"fmt"

	"heritagecore/internal/infra/persistence/memory"
	"heritagecore/internal/infra/persistence/postgres"
	redisstore "heritagecore/internal/infra/persistence/redis"
	"heritagecore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete durable key-value implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // Redis server
)

// StorageConfig selects and configures the durable store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Redis       redisstore.Options
}

// OpenKeyValueStore opens the configured backend. An empty driver defaults to
// sqlite.
func OpenKeyValueStore(ctx context.Context, cfg StorageConfig) (KeyValueStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case StorageRedis:
		return redisstore.NewStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
