package sqlq

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Value is a sealed interface over the values sqlq can bind and decode.
// Only Null, Int, Real, Text, Blob and Timestamp implement it.
//
// Decoded column values are always one of the first five; Timestamp is a
// bind-side convenience stored as integer Unix seconds.
type Value interface {
	sqlValue() // Sealed - only these types implement it
}

// Null is SQL NULL.
type Null struct{}

func (Null) sqlValue() {}

// Int is the INTEGER storage class.
type Int int64

func (Int) sqlValue() {}

// Real is the REAL storage class.
type Real float64

func (Real) sqlValue() {}

// Text is the TEXT storage class. The engine copies it when bound.
type Text string

func (Text) sqlValue() {}

// Blob is the BLOB storage class. The engine copies it when bound.
type Blob []byte

func (Blob) sqlValue() {}

// Timestamp binds as integer seconds since the Unix epoch.
type Timestamp time.Time

func (Timestamp) sqlValue() {}

// Integer builds an Int from any signed integer width.
func Integer[T ~int | ~int8 | ~int16 | ~int32 | ~int64](v T) Value {
	return Int(int64(v))
}

// Float builds a Real from any floating width.
func Float[T ~float32 | ~float64](v T) Value {
	return Real(float64(v))
}

// String builds a Text value.
func String(s string) Value {
	return Text(s)
}

// Bytes builds a Blob value. A nil slice is still a (zero length) blob.
func Bytes(b []byte) Value {
	if b == nil {
		return Blob{}
	}
	return Blob(b)
}

// Time builds a Timestamp value.
func Time(t time.Time) Value {
	return Timestamp(t)
}

// Bool builds an Int holding 1 or 0.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// ValueOf converts a dynamically typed Go value by its runtime type.
// A nil interface becomes Null; unsupported types fail with BindFailed.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case float32:
		return Real(x), nil
	case float64:
		return Real(x), nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	case time.Time:
		return Timestamp(x), nil
	case *time.Time:
		if x == nil {
			return Null{}, nil
		}
		return Timestamp(*x), nil
	default:
		return nil, newBindError(fmt.Sprintf("unsupported argument type %T", v), codeMismatch)
	}
}

// Values converts a list of dynamically typed arguments with ValueOf.
// The first failure reports its 0-based position.
func Values(args ...any) ([]Value, error) {
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Interface returns the natural Go value: nil, int64, float64, string,
// []byte or time.Time.
func Interface(v Value) any {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Real:
		return float64(x)
	case Text:
		return string(x)
	case Blob:
		return []byte(x)
	case Timestamp:
		return time.Time(x)
	default:
		return nil
	}
}

// Format renders v for humans: NULL, numbers, text verbatim, blobs as x'..'.
func Format(v Value) string {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Real:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case Text:
		return string(x)
	case Blob:
		return "x'" + hex.EncodeToString(x) + "'"
	case Timestamp:
		return strconv.FormatInt(time.Time(x).Unix(), 10)
	default:
		return "NULL"
	}
}
