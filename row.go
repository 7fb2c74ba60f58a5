package sqlq

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/sqlq/internal/sqlite"
)

// Row is one result row: column names in the order the engine reported
// them, each with its naturally decoded value.
//
// Column names are not guaranteed unique by the engine. A repeated name keeps
// the position of its first appearance and the value of its last.
type Row struct {
	names  []string
	values []Value
}

// NewRow builds a Row from alternating name, value pairs, mostly for tests.
func NewRow(pairs ...any) Row {
	var r Row
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		v, err := ValueOf(pairs[i+1])
		if err != nil {
			v = Null{}
		}
		r.set(name, v)
	}
	return r
}

// readRow decodes the current row of stmt.
func readRow(stmt sqlite.Stmt) Row {
	cols := stmt.Columns()
	r := Row{
		names:  make([]string, 0, len(cols)),
		values: make([]Value, 0, len(cols)),
	}
	for i, name := range cols {
		r.set(name, decodeColumn(stmt.Column(i)))
	}
	return r
}

func (r *Row) set(name string, v Value) {
	for i, n := range r.names {
		if n == name {
			r.values[i] = v
			return
		}
	}
	r.names = append(r.names, name)
	r.values = append(r.values, v)
}

// Len returns the number of distinct columns.
func (r Row) Len() int {
	return len(r.names)
}

// Columns returns the distinct column names in order.
func (r Row) Columns() []string {
	return append([]string(nil), r.names...)
}

// At returns the i-th column name and value.
func (r Row) At(i int) (string, Value) {
	return r.names[i], r.values[i]
}

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Value returns the value of the named column, or Null if there is none.
func (r Row) Value(name string) Value {
	if v, ok := r.Get(name); ok {
		return v
	}
	return Null{}
}

// Map returns the row as a plain map of natural Go values.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for i, n := range r.names {
		m[n] = Interface(r.values[i])
	}
	return m
}

// MarshalJSON encodes the row as a JSON object, keeping column order.
// Blobs encode as base64 strings.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(Interface(r.values[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
