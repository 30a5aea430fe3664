// Package migrate applies the canonical migration set to the active engine:
// each file is translated into the engine's dialect and executed exactly
// once, tracked in a bookkeeping table.
package migrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/focusloop/relstore/dialect"
	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/store"
)

// TableName is the bookkeeping table recording applied migrations.
const TableName = "schema_migrations"

// bookkeepingDDL is authored in the canonical dialect and translated like any
// migration, so each engine gets its own primary-key idiom.
const bookkeepingDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	migration_number INTEGER NOT NULL UNIQUE,
	checksum TEXT,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// Runner applies pending canonical migrations in ascending numeric order.
// It is meant to run single-threaded, once, before request traffic begins.
// Concurrent invocation is guarded only by the unique constraint on
// migration_number; deployment tooling is expected to serialize runs.
type Runner struct {
	db  *store.DB
	log logger.Logger
}

// NewRunner creates a Runner over the given store.
func NewRunner(db *store.DB) *Runner {
	return &Runner{db: db, log: db.Logger()}
}

// Run applies every pending migration from fsys. Already-applied numbers are
// skipped; a duplicate-column or duplicate-index error during apply is
// treated as success for that statement (tolerating out-of-band manual
// schema edits); any other error aborts the run with the failing migration
// number, leaving the bookkeeping table as the record of what succeeded.
func (r *Runner) Run(ctx context.Context, fsys fs.FS) error {
	files, err := Load(fsys)
	if err != nil {
		return err
	}

	if err := r.ensureBookkeeping(ctx); err != nil {
		return err
	}
	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	tr := dialect.NewTranslator(r.db.Dialect())
	for _, f := range files {
		sum := checksum(f.Source)
		if prev, ok := applied[f.Number]; ok {
			// keep the column-type registry complete for later files
			tr.Learn(f.Source)
			if prev != "" && prev != sum {
				r.log.Warn("migration %d (%s): canonical text changed after it was applied", f.Number, f.Name)
			}
			continue
		}
		if err := r.apply(ctx, tr, f, sum); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, tr *dialect.Translator, f File, sum string) error {
	d := r.db.Dialect()
	for _, stmt := range tr.Translate(f.Source) {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			switch {
			case d.IsDuplicateColumn(err):
				r.log.Info("migration %d (%s): column already exists, skipped: %s", f.Number, f.Name, stmt)
			case d.IsDuplicateObject(err):
				r.log.Info("migration %d (%s): object already exists, skipped: %s", f.Number, f.Name, stmt)
			default:
				return fmt.Errorf("migration %d (%s): %w", f.Number, f.Name, err)
			}
		}
	}

	record := r.db.Prepare(
		"INSERT INTO schema_migrations (migration_number, checksum) VALUES (?, ?)")
	if _, err := record.Bind(f.Number, sum).Run(ctx); err != nil {
		return fmt.Errorf("migration %d (%s): recording: %w", f.Number, f.Name, err)
	}
	r.log.Info("migration %d (%s) applied", f.Number, f.Name)
	return nil
}

func (r *Runner) ensureBookkeeping(ctx context.Context) error {
	tr := dialect.NewTranslator(r.db.Dialect())
	for _, stmt := range tr.Translate(bookkeepingDDL) {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bookkeeping table: %w", err)
		}
	}
	return nil
}

// appliedMigrations loads the applied set as number → recorded checksum.
func (r *Runner) appliedMigrations(ctx context.Context) (map[int]string, error) {
	env, err := r.db.Prepare("SELECT migration_number, checksum FROM schema_migrations").
		Bind().All(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]string, len(env.Rows))
	for _, row := range env.Rows {
		n, ok := asInt(row["migration_number"])
		if !ok {
			continue
		}
		applied[n] = asString(row["checksum"])
	}
	return applied, nil
}

func checksum(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
