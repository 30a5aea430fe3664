package store

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrUnknownEngine is returned when Open is given an engine name no
	// dialect is registered for.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrClosed is returned when a statement is dispatched after Close.
	ErrClosed = errors.New("store is closed")
	// ErrEmptyStatement is returned when a prepared query is blank.
	ErrEmptyStatement = errors.New("empty statement")
)

// StatementError enriches a driver error with the offending query, bound
// values and engine error code so the calling layer can produce an actionable
// response. The underlying error is never swallowed; Unwrap exposes it for
// errors.Is/As.
type StatementError struct {
	Query string
	Args  []any
	Code  string
	Err   error
}

func (e *StatementError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("statement failed (code %s): %v | sql: %s | args: %v",
			e.Code, e.Err, e.Query, e.Args)
	}
	return fmt.Sprintf("statement failed: %v | sql: %s | args: %v", e.Err, e.Query, e.Args)
}

func (e *StatementError) Unwrap() error { return e.Err }

// wrapStatement attaches diagnostic context to a driver error.
func wrapStatement(query string, args []any, err error) error {
	if err == nil {
		return nil
	}
	return &StatementError{
		Query: query,
		Args:  args,
		Code:  errorCode(err),
		Err:   err,
	}
}

// errorCode extracts the engine-specific error code from a driver error.
func errorCode(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return strconv.Itoa(int(me.Number))
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return strconv.Itoa(int(se.Code))
	}
	return ""
}
