package sqlq

import (
	"github.com/roach88/sqlq/internal/sqlite"
)

// withStatement owns one connection and one prepared statement for the
// duration of body.
//
// The sequence is open, prepare, reset, body. The statement is finalized and
// then the connection closed on every exit path, including a body error or
// panic. No transaction is started; the engine's autocommit applies.
func withStatement[T any](db *DB, query string, body func(conn sqlite.Conn, stmt sqlite.Stmt) (T, error)) (T, error) {
	var zero T

	conn, err := db.open(db.path, db.opts)
	if err != nil {
		return zero, engineError(OpenFailed, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			db.log.Warn("closing connection failed", "error", cerr)
		}
	}()

	stmt, err := conn.Prepare(query)
	if err != nil {
		return zero, prepareError(err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			db.log.Warn("finalizing statement failed", "error", cerr)
		}
	}()

	// Always start from a clean cursor.
	if err := stmt.Reset(); err != nil {
		return zero, engineError(OpenFailed, err)
	}

	return body(conn, stmt)
}

// prepareError classifies a prepare failure. The generic SQL error code
// (syntax errors, unknown tables or columns) is a fault of the statement
// text and reported as QueryFailed; anything else means no usable statement
// could be obtained.
func prepareError(err error) *Error {
	if sqlite.AsError(err).Code == sqlite.CodeError {
		return engineError(QueryFailed, err)
	}
	return engineError(OpenFailed, err)
}

// step advances stmt, mapping engine failures to QueryFailed.
func step(stmt sqlite.Stmt) (bool, error) {
	more, err := stmt.Step()
	if err != nil {
		return false, engineError(QueryFailed, err)
	}
	return more, nil
}

// drain steps stmt to completion, discarding any rows.
func drain(stmt sqlite.Stmt) error {
	for {
		more, err := step(stmt)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
