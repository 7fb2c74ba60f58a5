package sqlq

import (
	"errors"
	"fmt"

	"github.com/roach88/sqlq/internal/sqlite"
)

// Error is the failure reported by every sqlq operation.
//
// Errors carry:
//   - Kind: which stage failed (open, bind, query, decode)
//   - Message and Code: the engine's error message and result code
//   - Err: the underlying cause, if any
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is the engine (or decoder) message.
	Message string

	// Code is the engine's primary result code, 0 when not engine related.
	Code int

	// Err is the wrapped cause.
	Err error
}

// ErrorKind categorizes sqlq errors.
type ErrorKind string

const (
	// OpenFailed means no usable connection or statement could be obtained.
	OpenFailed ErrorKind = "OPEN_FAILED"

	// BindFailed means an argument could not be bound; nothing was stepped.
	BindFailed ErrorKind = "BIND_FAILED"

	// QueryFailed means the engine rejected the statement while running it.
	QueryFailed ErrorKind = "QUERY_FAILED"

	// DecodeFailed means a row could not be decoded into the typed target.
	DecodeFailed ErrorKind = "DECODE_FAILED"

	// Unexpected is the catch-all.
	Unexpected ErrorKind = "UNEXPECTED"
)

const codeMismatch = sqlite.CodeMismatch

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (code %d)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsOpenError returns true if err is an OpenFailed error.
func IsOpenError(err error) bool { return KindOf(err) == OpenFailed }

// IsBindError returns true if err is a BindFailed error.
func IsBindError(err error) bool { return KindOf(err) == BindFailed }

// IsQueryError returns true if err is a QueryFailed error.
func IsQueryError(err error) bool { return KindOf(err) == QueryFailed }

// IsDecodeError returns true if err is a DecodeFailed error.
func IsDecodeError(err error) bool { return KindOf(err) == DecodeFailed }

// engineError converts an engine failure into an *Error of the given kind.
func engineError(kind ErrorKind, err error) *Error {
	se := sqlite.AsError(err)
	return &Error{Kind: kind, Message: se.Message, Code: se.Code, Err: err}
}

func newBindError(msg string, code int) *Error {
	return &Error{Kind: BindFailed, Message: msg, Code: code}
}

func newDecodeError(column string, err error) *Error {
	return &Error{
		Kind:    DecodeFailed,
		Message: fmt.Sprintf("column %q: %v", column, err),
		Err:     err,
	}
}

func newUnexpectedError(msg string) *Error {
	return &Error{Kind: Unexpected, Message: msg}
}
