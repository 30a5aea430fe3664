package store

import "context"

// Statement is an immutable (query text, parameter list) pair before any
// values are bound.
type Statement struct {
	db    *DB
	query string
}

// Query returns the statement's SQL text.
func (s *Statement) Query() string { return s.query }

// Bind returns a new bound statement carrying the given positional values.
// The statement itself is never mutated.
func (s *Statement) Bind(values ...any) *BoundStatement {
	return &BoundStatement{stmt: s, args: append([]any(nil), values...)}
}

// BoundStatement is an immutable statement plus its ordered bound values.
type BoundStatement struct {
	stmt *Statement
	args []any
}

// Query returns the underlying SQL text.
func (b *BoundStatement) Query() string { return b.stmt.query }

// Values returns a copy of the bound values in bind order.
func (b *BoundStatement) Values() []any {
	return append([]any(nil), b.args...)
}

// Bind returns a new bound statement with the values appended after the
// existing ones. Callers that assemble parameter lists in stages rely on this
// incremental re-binding.
func (b *BoundStatement) Bind(values ...any) *BoundStatement {
	args := make([]any, 0, len(b.args)+len(values))
	args = append(args, b.args...)
	args = append(args, values...)
	return &BoundStatement{stmt: b.stmt, args: args}
}

// First executes the statement and returns its first row, or nil when the
// result set is empty. Zero rows is never an error.
func (b *BoundStatement) First(ctx context.Context) (Row, error) {
	env, err := b.execute(ctx, OpFirst)
	if err != nil {
		return nil, err
	}
	return env.SingleRow, nil
}

// FirstValue executes the statement and returns the named column of the
// first row, or nil when the result set is empty.
func (b *BoundStatement) FirstValue(ctx context.Context, column string) (any, error) {
	row, err := b.First(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return row[column], nil
}

// Run executes a write statement and reports changes and the inserted id
// when the engine produced one.
func (b *BoundStatement) Run(ctx context.Context) (*Envelope, error) {
	return b.execute(ctx, OpRun)
}

// All executes a read statement and returns every row.
func (b *BoundStatement) All(ctx context.Context) (*Envelope, error) {
	return b.execute(ctx, OpAll)
}

// Raw executes a read statement and returns positional row data, optionally
// prefixed with a column-name row. Raw bypasses the middleware chain.
func (b *BoundStatement) Raw(ctx context.Context, opts ...RawOption) ([][]any, error) {
	if b.stmt.db.closed.Load() {
		return nil, ErrClosed
	}
	var o rawOptions
	for _, opt := range opts {
		opt(&o)
	}
	cols, vals, err := b.stmt.db.adapter.Query(ctx, b.stmt.query, b.args)
	if err != nil {
		return nil, err
	}
	if !o.columnNames {
		return vals, nil
	}
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	return append([][]any{header}, vals...), nil
}

func (b *BoundStatement) execute(ctx context.Context, op Op) (*Envelope, error) {
	db := b.stmt.db
	if db.closed.Load() {
		return nil, ErrClosed
	}
	if b.stmt.query == "" {
		return nil, ErrEmptyStatement
	}
	var base ExecFunc
	switch op {
	case OpRun:
		base = func(ctx context.Context, b *BoundStatement) (*Envelope, error) {
			meta, err := db.adapter.Exec(ctx, b.stmt.query, b.args)
			if err != nil {
				return nil, err
			}
			return &Envelope{Success: true, Meta: meta}, nil
		}
	default:
		base = func(ctx context.Context, b *BoundStatement) (*Envelope, error) {
			cols, vals, err := db.adapter.Query(ctx, b.stmt.query, b.args)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, len(vals))
			for i, cells := range vals {
				row := make(Row, len(cols))
				for j, c := range cols {
					row[c] = cells[j]
				}
				rows[i] = row
			}
			env := &Envelope{Success: true}
			env.Meta.RowsRead = int64(len(rows))
			if op == OpFirst {
				if len(rows) > 0 {
					env.SingleRow = rows[0]
				}
			} else {
				env.Rows = rows
			}
			return env, nil
		}
	}
	return db.chain(op, base)(ctx, b)
}
