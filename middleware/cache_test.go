package middleware

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/focusloop/relstore/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open("sqlite", filepath.Join(t.TempDir(), "cache_test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.Logger().SetLevel(0)

	if _, err := db.Exec(context.Background(),
		"CREATE TABLE tasks (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Prepare("INSERT INTO tasks (title) VALUES (?)").Bind("cached").
		Run(context.Background()); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return db
}

// rowInt reads an integer row value. Cached and live envelopes alike must
// carry int64 here.
func rowInt(t *testing.T, env *store.Envelope, col string) int64 {
	t.Helper()
	v, ok := env.Rows[0][col].(int64)
	if !ok {
		t.Fatalf("unexpected %s type %T", col, env.Rows[0][col])
	}
	return v
}

// assertServesStale verifies the cache answers from its copy after the
// underlying table changed.
func assertServesStale(t *testing.T, db *store.DB) {
	t.Helper()
	ctx := WithCacheTTL(context.Background(), time.Minute)
	stmt := func() *store.BoundStatement {
		return db.Prepare("SELECT count(*) AS n FROM tasks").Bind()
	}

	env, err := stmt().All(ctx)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	before := rowInt(t, env, "n")

	if _, err := db.Prepare("INSERT INTO tasks (title) VALUES (?)").Bind("second").
		Run(context.Background()); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	env, err = stmt().All(ctx)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if got := rowInt(t, env, "n"); got != before {
		t.Errorf("expected the cached count %v, got %v", before, got)
	}

	// an uncached read sees the new row
	env, err = stmt().All(context.Background())
	if err != nil {
		t.Fatalf("uncached read failed: %v", err)
	}
	if got := rowInt(t, env, "n"); got == before {
		t.Error("read without a TTL must bypass the cache")
	}
}

func TestMemoryCacheServesRepeatReads(t *testing.T) {
	db := openTestDB(t)
	cache := NewMemoryCache()
	if err := db.Use(cache); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	assertServesStale(t, db)
	if cache.Len() == 0 {
		t.Error("cache should hold the read result")
	}
}

func TestRedisCacheServesRepeatReads(t *testing.T) {
	srv := miniredis.RunT(t)
	db := openTestDB(t)
	if err := db.Use(NewRedisCache(&redis.Options{Addr: srv.Addr()})); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	assertServesStale(t, db)
	if len(srv.Keys()) == 0 {
		t.Error("redis should hold the read result")
	}
}

func TestCachedRowKeepsValueTypes(t *testing.T) {
	db := openTestDB(t)
	if err := db.Use(NewMemoryCache()); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if _, err := db.Exec(context.Background(),
		"UPDATE tasks SET title = 'typed' WHERE id = 1"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	ctx := WithCacheTTL(context.Background(), time.Minute)
	read := func() *store.Envelope {
		env, err := db.Prepare("SELECT id, title, 1.5 AS score FROM tasks WHERE id = ?").
			Bind(1).All(ctx)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		return env
	}

	live := read()
	cached := read()

	if id, ok := cached.Rows[0]["id"].(int64); !ok || id != live.Rows[0]["id"] {
		t.Errorf("cached id = %v (%T), want %v (int64)",
			cached.Rows[0]["id"], cached.Rows[0]["id"], live.Rows[0]["id"])
	}
	if s, ok := cached.Rows[0]["score"].(float64); !ok || s != 1.5 {
		t.Errorf("cached score = %v (%T), want 1.5 (float64)",
			cached.Rows[0]["score"], cached.Rows[0]["score"])
	}
	if title, ok := cached.Rows[0]["title"].(string); !ok || title != "typed" {
		t.Errorf("cached title = %v (%T), want %q", cached.Rows[0]["title"],
			cached.Rows[0]["title"], "typed")
	}
}

func TestWritesBypassCache(t *testing.T) {
	db := openTestDB(t)
	if err := db.Use(NewMemoryCache()); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	ctx := WithCacheTTL(context.Background(), time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := db.Prepare("INSERT INTO tasks (title) VALUES (?)").Bind("w").
			Run(ctx); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	v, err := db.Prepare("SELECT count(*) AS n FROM tasks WHERE title = ?").Bind("w").
		FirstValue(context.Background(), "n")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n, _ := v.(int64); n != 2 {
		t.Errorf("both writes must reach the engine, got %v", v)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	db := openTestDB(t)
	cache := NewMemoryCache()
	if err := db.Use(cache); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	ctx := WithCacheTTL(context.Background(), 10*time.Millisecond)

	if _, err := db.Prepare("SELECT count(*) AS n FROM tasks").Bind().All(ctx); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, err := db.Prepare("INSERT INTO tasks (title) VALUES (?)").Bind("late").
		Run(context.Background()); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	env, err := db.Prepare("SELECT count(*) AS n FROM tasks").Bind().All(ctx)
	if err != nil {
		t.Fatalf("read after expiry failed: %v", err)
	}
	if n, _ := env.Rows[0]["n"].(int64); n != 2 {
		t.Errorf("expired entry must be refreshed, got %v", env.Rows[0]["n"])
	}
}
