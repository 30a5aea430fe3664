// Package dialect abstracts the SQL syntax and type-system differences
// between the supported storage engines, and rewrites canonical migration DDL
// into engine-correct DDL.
package dialect

import (
	"strings"

	"github.com/focusloop/relstore/coerce"
)

// Dialect represents the interface for database-specific SQL behavior.
// Each engine (SQLite, MySQL, PostgreSQL) must implement this interface to be
// usable as a storage backend.
type Dialect interface {
	// Name returns the dialect name used for registration and config.
	Name() string
	// Driver returns the database/sql driver name.
	Driver() string
	// Quote wraps an identifier in engine-specific quotes.
	Quote(name string) string
	// Placeholder returns the parameter placeholder for a 1-based index.
	Placeholder(index int) string
	// AutoIncrementPK returns the engine's auto-increment primary-key
	// column suffix, replacing the canonical AUTOINCREMENT idiom.
	AutoIncrementPK() string
	// TimestampType returns the engine's temporal column type name.
	TimestampType() string
	// HasBooleanType reports whether the engine has a distinct boolean
	// type requiring TRUE/FALSE literals in defaults.
	HasBooleanType() bool
	// SupportsCreateIndexIfNotExists reports whether CREATE INDEX accepts
	// an IF NOT EXISTS qualifier.
	SupportsCreateIndexIfNotExists() bool
	// TextIndexPrefix returns the prefix length required when an unbounded
	// text column participates in an index, or 0 when none is required.
	TextIndexPrefix() int
	// AllowsTextDefault reports whether unbounded text columns may carry a
	// DEFAULT clause.
	AllowsTextDefault() bool
	// InsertIgnore rewrites the canonical "INSERT OR IGNORE" idiom into
	// the engine's native conflict-ignoring insert.
	InsertIgnore(stmt string) string
	// IsReserved reports whether the identifier collides with one of the
	// engine's reserved words.
	IsReserved(word string) bool
	// TimeMode selects how bound temporal values are rendered.
	TimeMode() coerce.TimeMode
	// IsDuplicateColumn classifies a driver error as "column already
	// exists", one of the two benign migration errors.
	IsDuplicateColumn(err error) bool
	// IsDuplicateObject classifies a driver error as "table/index already
	// exists", the other benign migration error.
	IsDuplicateObject(err error) bool
}

var dialects = make(map[string]Dialect)

// Register registers a dialect under its name.
func Register(d Dialect) {
	dialects[d.Name()] = d
}

// Get retrieves a registered dialect by name.
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// ConvertPlaceholders rewrites canonical "?" placeholders into the dialect's
// positional form, leaving quoted regions untouched. Engines whose native
// placeholder is "?" get the query back unchanged.
func ConvertPlaceholders(query string, d Dialect) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				// doubled quote escapes itself
				if i+1 < len(query) && query[i+1] == quote {
					b.WriteByte(quote)
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			b.WriteByte(c)
		case '?':
			n++
			b.WriteString(d.Placeholder(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// SplitStatements splits a multi-statement SQL blob on semicolons, honoring
// single/double/backtick quoted regions and dropping line comments. Used only
// for trusted DDL (migrations), never for application input.
func SplitStatements(blob string) []string {
	var stmts []string
	var b strings.Builder
	var quote byte
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				if i+1 < len(blob) && blob[i+1] == quote {
					b.WriteByte(quote)
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch {
		case c == '-' && i+1 < len(blob) && blob[i+1] == '-':
			for i < len(blob) && blob[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == ';':
			if s := strings.TrimSpace(b.String()); s != "" {
				stmts = append(stmts, s)
			}
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
