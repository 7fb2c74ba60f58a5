package sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Primary result codes used outside this package. They mirror the
// go-sqlite3 ErrNo values, which the driver declares as variables.
const (
	CodeOK       = 0
	CodeError    = 1
	CodeCantOpen = 14
	CodeTooBig   = 18
	CodeMismatch = 20
	CodeMisuse   = 21
	CodeRange    = 25
)

// Conn is one open engine connection.
type Conn interface {
	// Prepare compiles the first statement of query.
	Prepare(query string) (Stmt, error)

	// LastInsertRowID reports sqlite3_last_insert_rowid for this connection.
	LastInsertRowID() (int64, error)

	// TotalChanges reports sqlite3_total_changes for this connection.
	TotalChanges() (int64, error)

	// Close releases the connection. Statements must be closed first.
	Close() error
}

// Stmt is one prepared statement scoped to a Conn.
type Stmt interface {
	// BindParameterCount reports the number of bind slots in the statement.
	BindParameterCount() int

	// Bind sets the 1-based parameter pos. v must be nil, int64, float64,
	// string or []byte. Engine limits apply here, not on Step.
	Bind(pos int, v any) error

	// Reset rewinds the statement to its first step and clears bindings.
	Reset() error

	// Step advances to the next row. It returns false once the statement
	// has run to completion.
	Step() (bool, error)

	// Columns reports the result column names.
	Columns() []string

	// Column reports the value at index i of the current row in its storage
	// class: nil, int64, float64, string or []byte. The declared column type
	// plays no part.
	Column(i int) any

	// Close finalizes the statement.
	Close() error
}

// Options tunes how connections are opened.
type Options struct {
	// BusyTimeout is how long a connection waits on a locked database.
	// Zero keeps the driver default.
	BusyTimeout time.Duration

	// MaxLength caps the size in bytes of any string or blob, bound or
	// computed. Zero keeps the engine limit.
	MaxLength int
}

// Opener opens a connection to the database file at path.
type Opener func(path string, opts Options) (Conn, error)

// Error is an engine failure with its message and primary result code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlite: %s (code %d)", e.Message, e.Code)
}

// AsError extracts the engine message and code from err. Errors that did not
// come from the engine are reported with CodeError.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return &Error{Code: int(se.Code), Message: se.Error()}
	}
	return &Error{Code: CodeError, Message: err.Error()}
}

// Open opens path with go-sqlite3. A missing file is created by the driver.
func Open(path string, opts Options) (Conn, error) {
	d := &sqlite3.SQLiteDriver{}
	c, err := d.Open(dsn(path, opts))
	if err != nil {
		return nil, AsError(err)
	}
	sc, ok := c.(*sqlite3.SQLiteConn)
	if !ok {
		_ = c.Close()
		return nil, &Error{Code: CodeMisuse, Message: fmt.Sprintf("unexpected driver connection %T", c)}
	}
	if opts.MaxLength > 0 {
		sc.SetLimit(sqlite3.SQLITE_LIMIT_LENGTH, opts.MaxLength)
	}
	return &conn{c: sc}, nil
}

// dsn builds a go-sqlite3 connection string.
// See: https://github.com/mattn/go-sqlite3#connection-string
func dsn(path string, opts Options) string {
	if opts.BusyTimeout <= 0 {
		return path
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", opts.BusyTimeout.Milliseconds()))
	return "file:" + path + "?" + q.Encode()
}

type conn struct {
	c *sqlite3.SQLiteConn
}

func (c *conn) Prepare(query string) (Stmt, error) {
	s, err := c.c.Prepare(query)
	if err != nil {
		return nil, AsError(err)
	}
	st, err := newStmt(s.(*sqlite3.SQLiteStmt))
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (c *conn) LastInsertRowID() (int64, error) {
	return c.scalar("SELECT last_insert_rowid()")
}

func (c *conn) TotalChanges() (int64, error) {
	return c.scalar("SELECT total_changes()")
}

// scalar runs a single-value query on this connection. Neither
// last_insert_rowid() nor total_changes() is disturbed by a SELECT.
func (c *conn) scalar(query string) (int64, error) {
	rows, err := c.c.Query(query, nil)
	if err != nil {
		return 0, AsError(err)
	}
	defer rows.Close()

	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		return 0, AsError(err)
	}
	n, ok := dest[0].(int64)
	if !ok {
		return 0, &Error{Code: CodeMismatch, Message: fmt.Sprintf("%s returned %T", query, dest[0])}
	}
	return n, nil
}

func (c *conn) Close() error {
	if err := c.c.Close(); err != nil {
		return AsError(err)
	}
	return nil
}
