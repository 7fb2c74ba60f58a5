package sqlq

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sqlq/internal/queue"
	"github.com/roach88/sqlq/internal/sqlite"
)

// schedule submits fn to the handle's executor and returns its Task.
// If the executor rejects the job, the Task resolves at once with Unexpected.
func schedule[T any](h *Handle, op, query string, fn func() (T, error)) *Task[T] {
	id := uuid.Must(uuid.NewV7()).String()
	task, resolve := queue.NewTask[T](id)

	ok := h.ex.Submit(func() {
		resolve(invoke(h, id, op, query, fn))
	})
	if !ok {
		var zero T
		err := newUnexpectedError("executor rejected operation")
		h.db.log.Debug("operation rejected", "op", op, "op_id", id, "sql", query)
		resolve(zero, err)
	}
	return task
}

// invoke runs fn on the calling goroutine with panic recovery and a debug
// log line. Sync variants call it directly with a fresh operation id.
func invoke[T any](h *Handle, id, op, query string, fn func() (T, error)) (T, error) {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	start := time.Now()
	val, err := guard(fn)
	h.db.log.Debug("operation",
		"op", op,
		"op_id", id,
		"sql", query,
		"duration", time.Since(start),
		"error", err,
	)
	return val, err
}

// guard converts a panic in fn into an Unexpected error.
func guard[T any](fn func() (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val = zero
			err = newUnexpectedError(fmt.Sprintf("panic: %v", r))
		}
	}()
	return fn()
}

// Exec runs a statement for its side effects.
func (h *Handle) Exec(query string, args ...any) *Task[struct{}] {
	return schedule(h, "exec", query, func() (struct{}, error) { return h.exec(query, args) })
}

// ExecSync is Exec on the calling goroutine.
func (h *Handle) ExecSync(query string, args ...any) error {
	_, err := invoke(h, "", "exec", query, func() (struct{}, error) { return h.exec(query, args) })
	return err
}

func (h *Handle) exec(query string, args []any) (struct{}, error) {
	vals, err := bindValues(args)
	if err != nil {
		return struct{}{}, err
	}
	return withStatement(h.db, query, func(_ sqlite.Conn, stmt sqlite.Stmt) (struct{}, error) {
		if err := bindArgs(stmt, vals); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, drain(stmt)
	})
}

// Run runs a statement and returns the number of rows it changed,
// including rows changed by triggers.
func (h *Handle) Run(query string, args ...any) *Task[int64] {
	return schedule(h, "run", query, func() (int64, error) { return h.run(query, args) })
}

// RunSync is Run on the calling goroutine.
func (h *Handle) RunSync(query string, args ...any) (int64, error) {
	return invoke(h, "", "run", query, func() (int64, error) { return h.run(query, args) })
}

func (h *Handle) run(query string, args []any) (int64, error) {
	vals, err := bindValues(args)
	if err != nil {
		return 0, err
	}
	return withStatement(h.db, query, func(conn sqlite.Conn, stmt sqlite.Stmt) (int64, error) {
		if err := bindArgs(stmt, vals); err != nil {
			return 0, err
		}
		if err := drain(stmt); err != nil {
			return 0, err
		}
		// The connection is fresh, so its running total is this statement's.
		n, err := conn.TotalChanges()
		if err != nil {
			return 0, engineError(QueryFailed, err)
		}
		return n, nil
	})
}

// Insert runs an INSERT and returns the rowid of the inserted row.
func (h *Handle) Insert(query string, args ...any) *Task[int64] {
	return schedule(h, "insert", query, func() (int64, error) { return h.insert(query, args) })
}

// InsertSync is Insert on the calling goroutine.
func (h *Handle) InsertSync(query string, args ...any) (int64, error) {
	return invoke(h, "", "insert", query, func() (int64, error) { return h.insert(query, args) })
}

func (h *Handle) insert(query string, args []any) (int64, error) {
	vals, err := bindValues(args)
	if err != nil {
		return 0, err
	}
	return withStatement(h.db, query, func(conn sqlite.Conn, stmt sqlite.Stmt) (int64, error) {
		if err := bindArgs(stmt, vals); err != nil {
			return 0, err
		}
		if err := drain(stmt); err != nil {
			return 0, err
		}
		id, err := conn.LastInsertRowID()
		if err != nil {
			return 0, engineError(QueryFailed, err)
		}
		return id, nil
	})
}

// Query returns every result row, each decoded to natural values.
// A failure part way through discards the rows read so far.
func (h *Handle) Query(query string, args ...any) *Task[[]Row] {
	return schedule(h, "query", query, func() ([]Row, error) { return h.query(query, args) })
}

// QuerySync is Query on the calling goroutine.
func (h *Handle) QuerySync(query string, args ...any) ([]Row, error) {
	return invoke(h, "", "query", query, func() ([]Row, error) { return h.query(query, args) })
}

func (h *Handle) query(query string, args []any) ([]Row, error) {
	return eachRow(h, query, args, false, func(Row) error { return nil })
}

// ScalarInt returns column index 0 of the first row as an integer. It
// returns def when the query produces no row, and also when that column
// is NULL.
func (h *Handle) ScalarInt(query string, def int64, args ...any) *Task[int64] {
	return schedule(h, "scalar_int", query, func() (int64, error) { return scalar(h, query, def, args) })
}

// ScalarIntSync is ScalarInt on the calling goroutine.
func (h *Handle) ScalarIntSync(query string, def int64, args ...any) (int64, error) {
	return invoke(h, "", "scalar_int", query, func() (int64, error) { return scalar(h, query, def, args) })
}

// ScalarString returns column index 0 of the first row as text. It
// returns def when the query produces no row, and also when that column
// is NULL.
func (h *Handle) ScalarString(query string, def string, args ...any) *Task[string] {
	return schedule(h, "scalar_string", query, func() (string, error) { return scalar(h, query, def, args) })
}

// ScalarStringSync is ScalarString on the calling goroutine.
func (h *Handle) ScalarStringSync(query string, def string, args ...any) (string, error) {
	return invoke(h, "", "scalar_string", query, func() (string, error) { return scalar(h, query, def, args) })
}

const versionQuery = "PRAGMA user_version"

// SchemaVersion returns the persisted schema version.
func (h *Handle) SchemaVersion() *Task[int64] {
	return schedule(h, "schema_version", versionQuery, func() (int64, error) { return scalar[int64](h, versionQuery, 0, nil) })
}

// SchemaVersionSync is SchemaVersion on the calling goroutine.
func (h *Handle) SchemaVersionSync() (int64, error) {
	return invoke(h, "", "schema_version", versionQuery, func() (int64, error) { return scalar[int64](h, versionQuery, 0, nil) })
}

// scalar decodes column index 0 of the first row. Later columns are never
// read, even when they share column 0's name.
func scalar[T any](h *Handle, query string, def T, args []any) (T, error) {
	vals, err := bindValues(args)
	if err != nil {
		return def, err
	}
	out, err := withStatement(h.db, query, func(_ sqlite.Conn, stmt sqlite.Stmt) (T, error) {
		if err := bindArgs(stmt, vals); err != nil {
			return def, err
		}
		more, err := step(stmt)
		if err != nil || !more {
			return def, err
		}
		cols := stmt.Columns()
		if len(cols) == 0 {
			return def, nil
		}
		v := decodeColumn(stmt.Column(0))
		if isNull(v) {
			return def, nil
		}
		decoded, err := Decode[T](v)
		if err != nil {
			return def, newDecodeError(cols[0], err)
		}
		return decoded, nil
	})
	if err != nil {
		return def, err
	}
	return out, nil
}

// QueryAs returns every result row mapped onto a new T. T must be a struct.
// Columns are matched to fields by name; see Defaulter for field defaults.
func QueryAs[T any](tg Target, query string, args ...any) *Task[[]T] {
	h := tg.handle()
	return schedule(h, "query_as", query, func() ([]T, error) { return queryAs[T](h, query, args, false) })
}

// QueryAsSync is QueryAs on the calling goroutine.
func QueryAsSync[T any](tg Target, query string, args ...any) ([]T, error) {
	h := tg.handle()
	return invoke(h, "", "query_as", query, func() ([]T, error) { return queryAs[T](h, query, args, false) })
}

// QueryFirst maps the first result row onto a new T, or returns nil when the
// query produces no rows. Stepping stops after the first row.
func QueryFirst[T any](tg Target, query string, args ...any) *Task[*T] {
	h := tg.handle()
	return schedule(h, "query_first", query, func() (*T, error) { return queryFirst[T](h, query, args) })
}

// QueryFirstSync is QueryFirst on the calling goroutine.
func QueryFirstSync[T any](tg Target, query string, args ...any) (*T, error) {
	h := tg.handle()
	return invoke(h, "", "query_first", query, func() (*T, error) { return queryFirst[T](h, query, args) })
}

func queryFirst[T any](h *Handle, query string, args []any) (*T, error) {
	objs, err := queryAs[T](h, query, args, true)
	if err != nil || len(objs) == 0 {
		return nil, err
	}
	return &objs[0], nil
}

func queryAs[T any](h *Handle, query string, args []any, first bool) ([]T, error) {
	plan, err := planFor(reflect.TypeFor[T]())
	if err != nil {
		return nil, &Error{Kind: DecodeFailed, Message: err.Error(), Err: err}
	}

	var (
		out  []T
		keys []string
	)
	_, err = eachRow(h, query, args, first, func(r Row) error {
		if keys == nil {
			keys = columnKeys(r.Columns())
		}
		dst := plan.newTarget()
		if err := plan.fill(dst, r, keys); err != nil {
			return err
		}
		out = append(out, dst.Interface().(T))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachRow binds args, steps the statement and hands every row to fn. With
// first set it stops after one row. Rows are collected only when the whole
// pass succeeds.
func eachRow(h *Handle, query string, args []any, first bool, fn func(Row) error) ([]Row, error) {
	vals, err := bindValues(args)
	if err != nil {
		return nil, err
	}
	return withStatement(h.db, query, func(_ sqlite.Conn, stmt sqlite.Stmt) ([]Row, error) {
		if err := bindArgs(stmt, vals); err != nil {
			return nil, err
		}
		var rows []Row
		for {
			more, err := step(stmt)
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			r := readRow(stmt)
			if err := fn(r); err != nil {
				return nil, err
			}
			rows = append(rows, r)
			if first {
				break
			}
		}
		return rows, nil
	})
}

// bindValues converts caller arguments, reporting failures as BindFailed.
func bindValues(args []any) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			e := &Error{Kind: BindFailed, Message: err.Error(), Err: err}
			var ve *Error
			if errors.As(err, &ve) {
				e.Message, e.Code = ve.Message, ve.Code
			}
			e.Message = fmt.Sprintf("argument %d: %s", i, e.Message)
			return nil, e
		}
		vals[i] = v
	}
	return vals, nil
}
