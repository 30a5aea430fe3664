package store

import "context"

// Op identifies which uniform-interface call a middleware is observing.
type Op int

const (
	OpFirst Op = iota
	OpAll
	OpRun
)

func (o Op) String() string {
	switch o {
	case OpFirst:
		return "first"
	case OpAll:
		return "all"
	case OpRun:
		return "run"
	default:
		return "unknown"
	}
}

// ExecFunc is the next step in the statement execution chain.
type ExecFunc func(ctx context.Context, b *BoundStatement) (*Envelope, error)

// Middleware intercepts bound statement execution. Implementations must pass
// errors through unchanged; only explicitly benign behavior (caching a read,
// timing a call) belongs here.
type Middleware interface {
	Name() string
	Init(db *DB) error
	Shutdown() error
	Process(ctx context.Context, op Op, b *BoundStatement, next ExecFunc) (*Envelope, error)
}

// chain folds the registered middlewares around a base executor.
func (db *DB) chain(op Op, base ExecFunc) ExecFunc {
	next := base
	for i := len(db.mws) - 1; i >= 0; i-- {
		m := db.mws[i]
		inner := next
		next = func(ctx context.Context, b *BoundStatement) (*Envelope, error) {
			return m.Process(ctx, op, b, inner)
		}
	}
	return next
}
