package middleware

import (
	"context"
	"time"

	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/store"
)

// SlowLog warns about statements that exceed a duration threshold. It never
// touches results or errors.
type SlowLog struct {
	Threshold time.Duration
	log       logger.Logger
}

// NewSlowLog creates a SlowLog with the given threshold.
func NewSlowLog(threshold time.Duration) *SlowLog {
	return &SlowLog{Threshold: threshold}
}

func (m *SlowLog) Name() string { return "SlowLog" }

func (m *SlowLog) Init(db *store.DB) error {
	m.log = db.Logger()
	return nil
}

func (m *SlowLog) Shutdown() error { return nil }

func (m *SlowLog) Process(ctx context.Context, op store.Op, b *store.BoundStatement, next store.ExecFunc) (*store.Envelope, error) {
	start := time.Now()
	env, err := next(ctx, b)
	if elapsed := time.Since(start); elapsed >= m.Threshold {
		m.log.Warn("slow statement (%v, op %s): %s | args: %v", elapsed, op, b.Query(), b.Values())
	}
	return env, err
}
