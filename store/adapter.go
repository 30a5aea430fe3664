package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/focusloop/relstore/coerce"
	"github.com/focusloop/relstore/dialect"
	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/pool"
)

// Adapter is a concrete backend for one storage engine. Every adapter owns
// exactly one connection pool and must produce metadata a caller cannot tell
// apart from the other engines'. Adapters are stateless beyond the pool and
// hold no prepared-statement cache.
type Adapter interface {
	// Name returns the engine name ("sqlite", "mysql", "postgres").
	Name() string
	// Dialect returns the adapter's SQL dialect.
	Dialect() dialect.Dialect
	// Pool returns the adapter's connection pool.
	Pool() pool.Pool
	// Exec dispatches a write statement and reports its metadata.
	Exec(ctx context.Context, query string, args []any) (Meta, error)
	// Query dispatches a read and materializes columns and positional rows.
	Query(ctx context.Context, query string, args []any) ([]string, [][]any, error)
	// Close releases the pool.
	Close() error
}

var insertRe = regexp.MustCompile(`(?i)^\s*INSERT\b`)

var (
	_ Adapter = (*SQLiteAdapter)(nil)
	_ Adapter = (*MySQLAdapter)(nil)
	_ Adapter = (*PostgresAdapter)(nil)
)

// baseAdapter carries the behavior shared by all three engines: placeholder
// conversion, per-dispatch value coercion, SQL timing logs and diagnostic
// error wrapping.
type baseAdapter struct {
	name string
	d    dialect.Dialect
	p    pool.Pool
	log  logger.Logger
}

func (a *baseAdapter) Name() string             { return a.name }
func (a *baseAdapter) Dialect() dialect.Dialect { return a.d }
func (a *baseAdapter) Pool() pool.Pool          { return a.p }
func (a *baseAdapter) Close() error             { return a.p.Close() }

// coerceArgs sanitizes every bound value before it reaches the driver. A
// value that cannot be converted is dispatched unconverted; the failure is a
// diagnostic, not an abort.
func (a *baseAdapter) coerceArgs(args []any) []any {
	out, err := coerce.Args(args, a.d.TimeMode())
	if err != nil {
		a.log.Warn("value coercion: %v", err)
	}
	return out
}

func (a *baseAdapter) Exec(ctx context.Context, query string, args []any) (Meta, error) {
	q := dialect.ConvertPlaceholders(query, a.d)
	args = a.coerceArgs(args)
	start := time.Now()
	res, err := a.p.ExecContext(ctx, q, args...)
	a.log.SQL(q, time.Since(start), args...)
	if err != nil {
		return Meta{}, wrapStatement(q, args, err)
	}
	var meta Meta
	if n, err := res.RowsAffected(); err == nil {
		meta.Changes = n
		meta.RowsWritten = n
	}
	if insertRe.MatchString(query) {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			meta.InsertedID = &id
		}
	}
	return meta, nil
}

func (a *baseAdapter) Query(ctx context.Context, query string, args []any) ([]string, [][]any, error) {
	q := dialect.ConvertPlaceholders(query, a.d)
	args = a.coerceArgs(args)
	start := time.Now()
	rows, err := a.p.QueryContext(ctx, q, args...)
	a.log.SQL(q, time.Since(start), args...)
	if err != nil {
		return nil, nil, wrapStatement(q, args, err)
	}
	defer rows.Close()
	cols, vals, err := scanRows(rows)
	if err != nil {
		return nil, nil, wrapStatement(q, args, err)
	}
	return cols, vals, nil
}

// SQLiteAdapter wraps the embedded file engine. Temporal values bind
// natively; concurrency serializes at the file handle.
type SQLiteAdapter struct {
	baseAdapter
}

// MySQLAdapter wraps the text-length-restricted client/server engine.
type MySQLAdapter struct {
	baseAdapter
}

// PostgresAdapter wraps the $N-placeholder client/server engine. Its driver
// does not report last-insert ids, so inserts recover the id via RETURNING.
type PostgresAdapter struct {
	baseAdapter
}

const pgErrUndefinedColumn = "42703"

// Exec on Postgres appends RETURNING id to plain INSERT statements so the
// envelope carries the inserted id the other engines report for free. Tables
// without an id column fall back to a plain exec with no id.
func (a *PostgresAdapter) Exec(ctx context.Context, query string, args []any) (Meta, error) {
	if !insertRe.MatchString(query) || containsReturning(query) {
		return a.baseAdapter.Exec(ctx, query, args)
	}
	q := dialect.ConvertPlaceholders(query, a.d) + " RETURNING id"
	args = a.coerceArgs(args)
	start := time.Now()
	rows, err := a.p.QueryContext(ctx, q, args...)
	a.log.SQL(q, time.Since(start), args...)
	if err != nil {
		var pe *pq.Error
		if errors.As(err, &pe) && string(pe.Code) == pgErrUndefinedColumn {
			return a.baseAdapter.Exec(ctx, query, args)
		}
		return Meta{}, wrapStatement(q, args, err)
	}
	defer rows.Close()
	var meta Meta
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return Meta{}, wrapStatement(q, args, err)
		}
		meta.Changes++
		meta.InsertedID = &id
	}
	if err := rows.Err(); err != nil {
		return Meta{}, wrapStatement(q, args, err)
	}
	meta.RowsWritten = meta.Changes
	return meta, nil
}

func containsReturning(query string) bool {
	return strings.Contains(strings.ToUpper(query), "RETURNING")
}

// scanRows materializes a row set into column names and positional values.
// []byte cells are copied to strings so rows outlive the scan buffer.
func scanRows(rows *sql.Rows) ([]string, [][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]any
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, c := range cells {
			if b, ok := c.([]byte); ok {
				cells[i] = string(b)
			}
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}
