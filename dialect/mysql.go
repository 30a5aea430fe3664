package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/focusloop/relstore/coerce"
)

// MySQL server error numbers treated as benign during migration re-apply.
const (
	mysqlErrTableExists  = 1050 // ER_TABLE_EXISTS_ERROR
	mysqlErrDupFieldName = 1060 // ER_DUP_FIELDNAME
	mysqlErrDupKeyName   = 1061 // ER_DUP_KEYNAME
)

// MySQL dialect: the text-length-restricted client/server engine. Unbounded
// TEXT columns cannot carry defaults and need an explicit prefix length when
// indexed.
type mysqlDialect struct{}

func init() {
	Register(&mysqlDialect{})
}

func (d *mysqlDialect) Name() string   { return "mysql" }
func (d *mysqlDialect) Driver() string { return "mysql" }

func (d *mysqlDialect) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *mysqlDialect) Placeholder(index int) string { return "?" }

func (d *mysqlDialect) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTO_INCREMENT"
}

func (d *mysqlDialect) TimestampType() string { return "DATETIME" }

func (d *mysqlDialect) HasBooleanType() bool { return false }

func (d *mysqlDialect) SupportsCreateIndexIfNotExists() bool { return false }

// 191 keeps prefixed utf8mb4 index entries inside the 767-byte key limit.
func (d *mysqlDialect) TextIndexPrefix() int { return 191 }

func (d *mysqlDialect) AllowsTextDefault() bool { return false }

func (d *mysqlDialect) InsertIgnore(stmt string) string {
	if m := insertIgnoreRe.FindStringSubmatchIndex(stmt); m != nil {
		return stmt[:m[0]] + "INSERT IGNORE INTO" + stmt[m[1]:]
	}
	return stmt
}

var mysqlReserved = map[string]bool{
	"order": true, "group": true, "key": true, "keys": true, "rank": true,
	"interval": true, "condition": true, "trigger": true, "index": true,
	"system": true, "to": true, "usage": true, "read": true, "write": true,
	"change": true, "desc": true, "repeat": true, "schema": true,
}

func (d *mysqlDialect) IsReserved(word string) bool {
	return mysqlReserved[strings.ToLower(word)]
}

func (d *mysqlDialect) TimeMode() coerce.TimeMode { return coerce.TimeString }

func (d *mysqlDialect) IsDuplicateColumn(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDupFieldName
}

func (d *mysqlDialect) IsDuplicateObject(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrDupKeyName || me.Number == mysqlErrTableExists
}
