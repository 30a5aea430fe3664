// Package pool wraps the engine connection pool owned by an adapter. One pool
// exists per process; it is created at startup and released on shutdown.
package pool

import (
	"context"
	"database/sql"
	"time"
)

// Options bounds the pool for the client/server engines. The embedded file
// engine serializes at the file handle regardless of these settings.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool defines the interface for a database connection pool. It carries only
// what the adapters call; the wrapped *sql.DB stays reachable on StdPool for
// anything beyond that.
type Pool interface {
	Close() error
	Ping() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// StdPool is an implementation of Pool using the standard library's *sql.DB.
type StdPool struct {
	*sql.DB
}

// NewStdPool creates a StdPool wrapping the given *sql.DB, applying opts when
// present.
func NewStdPool(db *sql.DB, opts *Options) *StdPool {
	if opts != nil {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}
	return &StdPool{db}
}
