package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"

	"github.com/focusloop/relstore/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open("sqlite", filepath.Join(t.TempDir(), "migrate_test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.Logger().SetLevel(0)
	return db
}

func appliedNumbers(t *testing.T, db *store.DB) map[int]int {
	t.Helper()
	env, err := db.Prepare("SELECT migration_number FROM schema_migrations").Bind().
		All(context.Background())
	if err != nil {
		t.Fatalf("reading bookkeeping table: %v", err)
	}
	counts := make(map[int]int)
	for _, row := range env.Rows {
		n, _ := row["migration_number"].(int64)
		counts[int(n)]++
	}
	return counts
}

var basicSet = fstest.MapFS{
	"1.sql": {Data: []byte(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE
	);`)},
	"2.sql": {Data: []byte(`CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL
	);
	CREATE INDEX idx_tasks_user ON tasks (user_id);`)},
	"2_down.sql": {Data: []byte(`DROP TABLE tasks;`)},
	"3.sql":      {Data: []byte(`ALTER TABLE tasks ADD COLUMN priority INTEGER DEFAULT 0;`)},
}

func TestLoadOrdersAndFilters(t *testing.T) {
	files, err := Load(basicSet)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("down files must be excluded, got %d files", len(files))
	}
	for i, want := range []int{1, 2, 3} {
		if files[i].Number != want {
			t.Errorf("file %d has number %d, want %d", i, files[i].Number, want)
		}
	}
}

func TestLoadRejectsDuplicateNumbers(t *testing.T) {
	fsys := fstest.MapFS{
		"2.sql":     {Data: []byte(`SELECT 1;`)},
		"2_fix.sql": {Data: []byte(`SELECT 1;`)},
	}
	if _, err := Load(fsys); err == nil {
		t.Fatal("expected an error for duplicate migration numbers")
	}
}

func TestRunAppliesOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	if err := r.Run(ctx, basicSet); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// schema is usable
	if _, err := db.Prepare("INSERT INTO tasks (user_id, title, priority) VALUES (?, ?, ?)").
		Bind(1, "t", 2).Run(ctx); err != nil {
		t.Fatalf("schema incomplete after run: %v", err)
	}

	if err := r.Run(ctx, basicSet); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	counts := appliedNumbers(t, db)
	if len(counts) != 3 {
		t.Fatalf("expected 3 applied migrations, got %v", counts)
	}
	for n, c := range counts {
		if c != 1 {
			t.Errorf("migration %d recorded %d times", n, c)
		}
	}
}

func TestRunToleratesManualColumn(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	partial := fstest.MapFS{"1.sql": basicSet["1.sql"], "2.sql": basicSet["2.sql"]}
	if err := r.Run(ctx, partial); err != nil {
		t.Fatalf("setup run failed: %v", err)
	}

	// out-of-band manual edit that 3.sql would also make
	if _, err := db.Exec(ctx, "ALTER TABLE tasks ADD COLUMN priority INTEGER DEFAULT 0"); err != nil {
		t.Fatalf("manual edit failed: %v", err)
	}

	if err := r.Run(ctx, basicSet); err != nil {
		t.Fatalf("duplicate column must be a skip, not a failure: %v", err)
	}
	if counts := appliedNumbers(t, db); counts[3] != 1 {
		t.Errorf("migration 3 should be recorded as applied: %v", counts)
	}
}

func TestRunFailsFast(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	broken := fstest.MapFS{
		"1.sql": basicSet["1.sql"],
		"2.sql": {Data: []byte(`CREATE BADNESS;`)},
		"3.sql": {Data: []byte(`CREATE TABLE later (id INTEGER PRIMARY KEY AUTOINCREMENT);`)},
	}
	err := NewRunner(db).Run(ctx, broken)
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if !strings.Contains(err.Error(), "migration 2") {
		t.Errorf("error should name the failing migration: %v", err)
	}
	counts := appliedNumbers(t, db)
	if counts[1] != 1 || counts[3] != 0 {
		t.Errorf("fail-fast should keep 1 and never reach 3: %v", counts)
	}
}

func TestRunToleratesEditedAppliedFile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	first := fstest.MapFS{"1.sql": basicSet["1.sql"]}
	if err := r.Run(ctx, first); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	edited := fstest.MapFS{
		"1.sql": {Data: []byte(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT);`)},
	}
	// drift is logged, not fatal, and the file is still skipped
	if err := r.Run(ctx, edited); err != nil {
		t.Fatalf("edited applied file must not fail the run: %v", err)
	}
	if counts := appliedNumbers(t, db); counts[1] != 1 {
		t.Errorf("edited file must not re-apply: %v", counts)
	}
}

func TestRunCanonicalRepoMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := NewRunner(db).Run(ctx, os.DirFS("../migrations")); err != nil {
		t.Fatalf("repo migration set failed: %v", err)
	}

	// reserved-word column from the ALTER migration is usable when quoted
	env, err := db.Prepare("INSERT INTO tasks (project_id, title, `order`) VALUES (?, ?, ?)").
		Bind(1, "plan sprint", 5).Run(ctx)
	if err != nil {
		t.Fatalf("insert into migrated schema failed: %v", err)
	}
	if env.Meta.InsertedID == nil {
		t.Fatal("expected inserted id")
	}

	// seeded rows from INSERT OR IGNORE exist exactly once after two runs
	if err := NewRunner(db).Run(ctx, os.DirFS("../migrations")); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	v, err := db.Prepare("SELECT count(*) AS n FROM tags WHERE label = ?").
		Bind("deep-work").FirstValue(ctx, "n")
	if err != nil {
		t.Fatalf("reading tags: %v", err)
	}
	if n, _ := v.(int64); n != 1 {
		t.Errorf("seed row should exist exactly once, got %v", v)
	}
}
