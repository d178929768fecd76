package kv

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound reports an absent key. Callers are expected to treat it as a
// normal condition, not a failure.
var ErrNotFound = errors.New("kv: key not found")

// Store is a synchronous string-keyed, string-valued store surviving process
// restarts (memory driver excepted, which exists for tests and ephemeral runs).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Driver identifiers supported by the platform.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config describes the high level store selection parameters.
type Config struct {
	Driver    string
	Namespace string
	Redis     *RedisConfig
	SQLite    *SQLiteConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// SQLiteConfig provides the database dependency parameters.
type SQLiteConfig struct {
	DSN string
}

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New creates a key-value store based on the provided configuration.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite driver requires database handle")
		}
		return NewSQLite(deps.SQLiteDB)
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported kv store driver: %s", driver)
	}
}
