package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/focusloop/relstore/coerce"
)

// SQLite dialect: the embedded file engine, and the reference dialect the
// canonical migrations are authored in.
type sqliteDialect struct{}

func init() {
	Register(&sqliteDialect{})
}

func (d *sqliteDialect) Name() string   { return "sqlite" }
func (d *sqliteDialect) Driver() string { return "sqlite3" }

func (d *sqliteDialect) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *sqliteDialect) Placeholder(index int) string { return "?" }

func (d *sqliteDialect) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *sqliteDialect) TimestampType() string { return "DATETIME" }

func (d *sqliteDialect) HasBooleanType() bool { return false }

func (d *sqliteDialect) SupportsCreateIndexIfNotExists() bool { return true }

func (d *sqliteDialect) TextIndexPrefix() int { return 0 }

func (d *sqliteDialect) AllowsTextDefault() bool { return true }

func (d *sqliteDialect) InsertIgnore(stmt string) string {
	// canonical idiom is already the SQLite one
	return stmt
}

// sqliteReserved is the subset of SQLite keywords that column names in the
// canonical migrations could realistically collide with.
var sqliteReserved = map[string]bool{
	"order": true, "group": true, "index": true, "limit": true,
	"offset": true, "where": true, "table": true, "to": true,
	"transaction": true, "default": true, "check": true, "references": true,
}

func (d *sqliteDialect) IsReserved(word string) bool {
	return sqliteReserved[strings.ToLower(word)]
}

func (d *sqliteDialect) TimeMode() coerce.TimeMode { return coerce.TimeNative }

func (d *sqliteDialect) IsDuplicateColumn(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return strings.Contains(se.Error(), "duplicate column name")
	}
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

func (d *sqliteDialect) IsDuplicateObject(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") &&
		(strings.Contains(msg, "index") || strings.Contains(msg, "table"))
}
