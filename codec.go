package sqlq

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sqlq/internal/sqlite"
)

var (
	timeType = reflect.TypeOf(time.Time{})

	// textTimeFormats are tried, in order, when a non-numeric TEXT value is
	// decoded into time.Time.
	textTimeFormats = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// bindArgs binds args to the statement's 1-based positions in order.
// The first failure aborts with BindFailed; the statement is never stepped.
func bindArgs(stmt sqlite.Stmt, args []Value) error {
	for i, a := range args {
		if err := stmt.Bind(i+1, engineValue(a)); err != nil {
			return engineError(BindFailed, err)
		}
	}
	return nil
}

// engineValue lowers a Value to what the engine binds.
func engineValue(v Value) any {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Real:
		return float64(x)
	case Text:
		return string(x)
	case Blob:
		if x == nil {
			return []byte{}
		}
		return []byte(x)
	case Timestamp:
		return time.Time(x).Unix()
	default:
		return nil
	}
}

// decodeColumn lifts an engine column value to its storage class.
func decodeColumn(raw any) Value {
	switch x := raw.(type) {
	case int64:
		return Int(x)
	case float64:
		return Real(x)
	case string:
		return Text(x)
	case []byte:
		return Blob(x)
	default:
		return Null{}
	}
}

// Decode coerces v into T following the destination-type rules: numeric
// classes convert or narrow without overflow checks, TEXT is parsed, BLOB is
// only accepted by []byte destinations and NULL yields the zero value.
func Decode[T any](v Value) (T, error) {
	var out T
	if err := coerce(v, reflect.ValueOf(&out).Elem()); err != nil {
		return out, err
	}
	return out, nil
}

// coerce stores v into the settable dst, converting to dst's type.
func coerce(v Value, dst reflect.Value) error {
	t := dst.Type()

	switch t.Kind() {
	case reflect.Pointer:
		if isNull(v) {
			dst.Set(reflect.Zero(t))
			return nil
		}
		p := reflect.New(t.Elem())
		if err := coerce(v, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Interface:
		if t.NumMethod() > 0 && v != nil && reflect.TypeOf(v).Implements(t) {
			dst.Set(reflect.ValueOf(v))
			return nil
		}
		nat := Interface(v)
		if nat == nil {
			dst.Set(reflect.Zero(t))
			return nil
		}
		rv := reflect.ValueOf(nat)
		if !rv.Type().AssignableTo(t) {
			return fmt.Errorf("cannot store %T in %s", nat, t)
		}
		dst.Set(rv)
		return nil
	}

	switch x := v.(type) {
	case nil, Null:
		dst.Set(reflect.Zero(t))
		return nil
	case Int:
		return setInt(dst, int64(x))
	case Timestamp:
		return setInt(dst, time.Time(x).Unix())
	case Real:
		return setReal(dst, float64(x))
	case Text:
		return setText(dst, string(x))
	case Blob:
		if !isBytes(t) {
			return fmt.Errorf("blob cannot be stored in %s", t)
		}
		dst.SetBytes(append([]byte{}, x...))
		return nil
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
}

func setInt(dst reflect.Value, n int64) error {
	t := dst.Type()
	if t == timeType {
		dst.Set(reflect.ValueOf(time.Unix(n, 0)))
		return nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(n))
	case reflect.Bool:
		dst.SetBool(n == 1)
	case reflect.String:
		dst.SetString(strconv.FormatInt(n, 10))
	default:
		if isBytes(t) {
			dst.SetBytes([]byte(strconv.FormatInt(n, 10)))
			return nil
		}
		return fmt.Errorf("integer cannot be stored in %s", t)
	}
	return nil
}

func setReal(dst reflect.Value, f float64) error {
	t := dst.Type()
	if t == timeType {
		dst.Set(reflect.ValueOf(time.Unix(int64(f), 0)))
		return nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(uint64(int64(f)))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(f)
	case reflect.Bool:
		dst.SetBool(f == 1)
	case reflect.String:
		dst.SetString(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		if isBytes(t) {
			dst.SetBytes([]byte(strconv.FormatFloat(f, 'g', -1, 64)))
			return nil
		}
		return fmt.Errorf("real cannot be stored in %s", t)
	}
	return nil
}

func setText(dst reflect.Value, s string) error {
	t := dst.Type()
	if t == timeType {
		tm, err := parseTextTime(s)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(tm))
		return nil
	}
	switch t.Kind() {
	case reflect.String:
		dst.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := parseTextInt(s)
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := parseTextInt(s)
		if err != nil {
			return err
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("parse %q as real: %w", s, err)
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("parse %q as bool: %w", s, err)
		}
		dst.SetBool(b)
	default:
		if isBytes(t) {
			dst.SetBytes([]byte(s))
			return nil
		}
		return fmt.Errorf("text cannot be stored in %s", t)
	}
	return nil
}

// parseTextInt accepts integer text and falls back to truncating real text
// such as "3.0".
func parseTextInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q as integer: %w", s, err)
	}
	return int64(f), nil
}

// parseTextTime reads numeric text as Unix seconds, then tries the common
// SQLite date formats.
func parseTextTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(int64(f), 0), nil
	}
	for _, layout := range textTimeFormats {
		if tm, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %q as timestamp", s)
}

func isNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
