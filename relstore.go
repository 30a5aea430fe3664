// Package relstore is the storage portability layer of the FocusLoop task
// service: one uniform relational access contract served by an embedded
// SQLite file, a MySQL server or a PostgreSQL server, with canonical
// migrations translated into each engine's dialect at apply time.
package relstore

import (
	"github.com/redis/go-redis/v9"

	"github.com/focusloop/relstore/config"
	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/middleware"
	"github.com/focusloop/relstore/migrate"
	"github.com/focusloop/relstore/pool"
	"github.com/focusloop/relstore/store"
)

// Re-export the core types and functions
type DB = store.DB
type Statement = store.Statement
type BoundStatement = store.BoundStatement
type Envelope = store.Envelope
type Row = store.Row
type Meta = store.Meta
type Adapter = store.Adapter
type StatementError = store.StatementError
type PoolOptions = pool.Options

var (
	Open  = store.Open
	NewDB = store.NewDB

	ErrUnknownEngine  = store.ErrUnknownEngine
	ErrClosed         = store.ErrClosed
	ErrEmptyStatement = store.ErrEmptyStatement
)

// Re-export migration and configuration entry points
type Runner = migrate.Runner
type Config = config.Config

var (
	NewRunner  = migrate.NewRunner
	LoadConfig = config.Load
)

var logLevels = map[string]logger.LogLevel{
	"silent": logger.LogLevelSilent,
	"error":  logger.LogLevelError,
	"warn":   logger.LogLevelWarn,
	"info":   logger.LogLevelInfo,
}

// OpenFromConfig opens a DB wired the way the configuration says: pool
// bounds, log level and format, and the configured read cache installed as
// middleware. Empty sections keep the defaults of Open.
func OpenFromConfig(cfg *config.Config) (*store.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Engine, cfg.DSN, &pool.Options{
		MaxOpenConns:    cfg.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Pool.MaxIdleConns,
		ConnMaxLifetime: cfg.Pool.ConnMaxLifetime.Std(),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Log.Level != "" {
		db.Logger().SetLevel(logLevels[cfg.Log.Level])
	}
	if cfg.Log.Format != "" {
		db.Logger().SetFormat(logger.LogFormat(cfg.Log.Format))
	}

	var cache store.Middleware
	switch cfg.Cache.Kind {
	case "memory":
		cache = middleware.NewMemoryCache()
	case "redis":
		cache = middleware.NewRedisCache(&redis.Options{Addr: cfg.Cache.RedisAddr})
	}
	if cache != nil {
		if err := db.Use(cache); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
