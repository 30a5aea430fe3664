// Package store implements the uniform relational access interface of the
// storage portability layer: one contract, three engine adapters. Callers
// prepare statements, bind positional values and execute; the envelope shape
// is identical whichever engine backs the process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/focusloop/relstore/dialect"
	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/pool"
)

// DB is the entry point of the storage layer. The concrete adapter is chosen
// once at Open time and is immutable for the process lifetime.
type DB struct {
	adapter Adapter
	log     logger.Logger
	mws     []Middleware
	closed  atomic.Bool
}

// Open selects the adapter for the given engine name ("sqlite", "mysql",
// "postgres"), opens its pool and verifies connectivity.
func Open(engine, dsn string, opts *pool.Options) (*DB, error) {
	d, ok := dialect.Get(engine)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}

	sqlDB, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, err
	}
	p := pool.NewStdPool(sqlDB, opts)
	if err := p.Ping(); err != nil {
		p.Close()
		return nil, err
	}

	log := logger.NewStdLogger()
	base := baseAdapter{name: engine, d: d, p: p, log: log}
	var a Adapter
	switch engine {
	case "sqlite":
		a = &SQLiteAdapter{base}
	case "mysql":
		a = &MySQLAdapter{base}
	case "postgres":
		a = &PostgresAdapter{base}
	default:
		p.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}

	return &DB{adapter: a, log: log}, nil
}

// NewDB wraps an already-constructed adapter. Used by tests and by callers
// that build adapters themselves.
func NewDB(a Adapter, log logger.Logger) *DB {
	if log == nil {
		log = logger.Discard()
	}
	return &DB{adapter: a, log: log}
}

// Adapter returns the engine adapter selected at Open time.
func (db *DB) Adapter() Adapter { return db.adapter }

// Dialect returns the active engine dialect.
func (db *DB) Dialect() dialect.Dialect { return db.adapter.Dialect() }

// Logger returns the logger shared by the storage layer.
func (db *DB) Logger() logger.Logger { return db.log }

// SetLogger replaces the storage layer's logger.
func (db *DB) SetLogger(l logger.Logger) {
	db.log = l
	if b, ok := baseOf(db.adapter); ok {
		b.log = l
	}
}

func baseOf(a Adapter) (*baseAdapter, bool) {
	switch v := a.(type) {
	case *SQLiteAdapter:
		return &v.baseAdapter, true
	case *MySQLAdapter:
		return &v.baseAdapter, true
	case *PostgresAdapter:
		return &v.baseAdapter, true
	default:
		return nil, false
	}
}

// Use initializes a middleware and appends it to the statement execution
// chain. Middlewares run in registration order.
func (db *DB) Use(m Middleware) error {
	if err := m.Init(db); err != nil {
		return fmt.Errorf("middleware %s: %w", m.Name(), err)
	}
	db.mws = append(db.mws, m)
	return nil
}

// Prepare constructs a statement. It is pure: no network or disk is touched
// until the bound statement executes.
func (db *DB) Prepare(query string) *Statement {
	return &Statement{db: db, query: query}
}

var readRe = regexp.MustCompile(`(?i)^\s*(SELECT|WITH|PRAGMA|SHOW|EXPLAIN)\b`)

// Exec splits a multi-statement SQL blob on statement boundaries and executes
// the pieces sequentially, returning one envelope with summed metadata. Meant
// for DDL and migrations only, never for untrusted application input.
func (db *DB) Exec(ctx context.Context, blob string) (*Envelope, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	env := &Envelope{Success: true}
	for _, stmt := range dialect.SplitStatements(blob) {
		meta, err := db.adapter.Exec(ctx, stmt, nil)
		if err != nil {
			return nil, err
		}
		env.Meta.Changes += meta.Changes
		env.Meta.RowsWritten += meta.RowsWritten
		if meta.InsertedID != nil {
			env.Meta.InsertedID = meta.InsertedID
		}
	}
	return env, nil
}

// Batch executes prepared statements in input order, one envelope per
// statement. There is no cross-statement atomicity beyond what the native
// driver gives a single call; a failure aborts the remainder.
func (db *DB) Batch(ctx context.Context, stmts []*BoundStatement) ([]*Envelope, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	envs := make([]*Envelope, 0, len(stmts))
	for _, b := range stmts {
		var (
			env *Envelope
			err error
		)
		if readRe.MatchString(b.Query()) {
			env, err = b.All(ctx)
		} else {
			env, err = b.Run(ctx)
		}
		if err != nil {
			return envs, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// Close shuts middlewares down and releases the pool. Safe to call once on
// every exit path; later statement dispatch fails with ErrClosed.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	var firstErr error
	for _, m := range db.mws {
		if err := m.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := db.adapter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
