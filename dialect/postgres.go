package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/focusloop/relstore/coerce"
)

// PostgreSQL error codes treated as benign during migration re-apply.
const (
	pgErrDuplicateColumn = "42701" // duplicate_column
	pgErrDuplicateTable  = "42P07" // duplicate_table (also relations/indexes)
	pgErrDuplicateObject = "42710" // duplicate_object
)

// PostgreSQL dialect. Uses $N placeholders, SERIAL primary keys, TIMESTAMP
// columns and real boolean literals.
type postgresDialect struct{}

func init() {
	Register(&postgresDialect{})
}

func (d *postgresDialect) Name() string   { return "postgres" }
func (d *postgresDialect) Driver() string { return "postgres" }

func (d *postgresDialect) Quote(name string) string {
	return fmt.Sprintf("%q", name)
}

func (d *postgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *postgresDialect) AutoIncrementPK() string {
	return "SERIAL PRIMARY KEY"
}

func (d *postgresDialect) TimestampType() string { return "TIMESTAMP" }

func (d *postgresDialect) HasBooleanType() bool { return true }

func (d *postgresDialect) SupportsCreateIndexIfNotExists() bool { return true }

func (d *postgresDialect) TextIndexPrefix() int { return 0 }

func (d *postgresDialect) AllowsTextDefault() bool { return true }

func (d *postgresDialect) InsertIgnore(stmt string) string {
	if m := insertIgnoreRe.FindStringSubmatchIndex(stmt); m != nil {
		return stmt[:m[0]] + "INSERT INTO" + stmt[m[1]:] + " ON CONFLICT DO NOTHING"
	}
	return stmt
}

var postgresReserved = map[string]bool{
	"user": true, "order": true, "group": true, "primary": true,
	"desc": true, "asc": true, "limit": true, "offset": true, "table": true,
	"column": true, "check": true, "default": true, "references": true,
	"end": true, "to": true, "grant": true, "select": true,
}

func (d *postgresDialect) IsReserved(word string) bool {
	return postgresReserved[strings.ToLower(word)]
}

func (d *postgresDialect) TimeMode() coerce.TimeMode { return coerce.TimeString }

func (d *postgresDialect) IsDuplicateColumn(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && string(pe.Code) == pgErrDuplicateColumn
}

func (d *postgresDialect) IsDuplicateObject(err error) bool {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return false
	}
	return string(pe.Code) == pgErrDuplicateTable || string(pe.Code) == pgErrDuplicateObject
}
