package pool

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var _ Pool = (*StdPool)(nil)

func TestNewStdPoolAppliesOptions(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "pool_test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	p := NewStdPool(db, &Options{
		MaxOpenConns:    3,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	defer p.Close()

	if err := p.Ping(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if got := p.Stats().MaxOpenConnections; got != 3 {
		t.Errorf("MaxOpenConnections = %d, want 3", got)
	}
}

func TestNewStdPoolNilOptions(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "pool_test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	p := NewStdPool(db, nil)
	defer p.Close()

	if got := p.Stats().MaxOpenConnections; got != 0 {
		t.Errorf("nil options must leave the pool unbounded, got %d", got)
	}
}
