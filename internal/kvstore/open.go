package kvstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Supported drivers for Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver string

	SQLiteDSN         string
	SQLiteBusyTimeout time.Duration
	SQLiteJournalMode string

	PostgresDSN string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "":
		return OpenSQL(ctx, SQLConfig{
			Dialect:     SQLite,
			DSN:         opts.SQLiteDSN,
			BusyTimeout: opts.SQLiteBusyTimeout,
			JournalMode: opts.SQLiteJournalMode,
		})
	case DriverPostgres:
		return OpenSQL(ctx, SQLConfig{
			Dialect:         Postgres,
			DSN:             opts.PostgresDSN,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
	case DriverRedis:
		return OpenRedis(ctx, RedisConfig{
			Addr:      opts.RedisAddr,
			Password:  opts.RedisPassword,
			DB:        opts.RedisDB,
			KeyPrefix: opts.RedisKeyPrefix,
		})
	default:
		return nil, fmt.Errorf("kvstore: unsupported driver %q", opts.Driver)
	}
}
