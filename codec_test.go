package sqlq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int16

func TestValueOf_RuntimeTypes(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"int", 7, Int(7)},
		{"int8", int8(-8), Int(-8)},
		{"int16", int16(16), Int(16)},
		{"int32", int32(32), Int(32)},
		{"int64", int64(1) << 40, Int(1 << 40)},
		{"uint8", uint8(255), Int(255)},
		{"float32", float32(1.5), Real(1.5)},
		{"float64", 2.25, Real(2.25)},
		{"bool", true, Int(1)},
		{"string", "jack", Text("jack")},
		{"bytes", []byte{1, 2}, Blob{1, 2}},
		{"nil bytes", []byte(nil), Blob{}},
		{"time", now, Timestamp(now)},
		{"value passthrough", Text("x"), Text("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueOf_Unsupported(t *testing.T) {
	_, err := ValueOf(struct{}{})
	require.Error(t, err)
	assert.True(t, IsBindError(err))

	_, err = Values(1, "ok", map[string]int{})
	require.Error(t, err)
	assert.True(t, IsBindError(err))
	assert.Contains(t, err.Error(), "argument 2")
}

func TestTypedConstructors(t *testing.T) {
	assert.Equal(t, Int(-3), Integer(int8(-3)))
	assert.Equal(t, Int(9), Integer(level(9)))
	assert.Equal(t, Real(0.5), Float(float32(0.5)))
	assert.Equal(t, Text("a"), String("a"))
	assert.Equal(t, Int(0), Bool(false))
}

func TestEngineValue(t *testing.T) {
	at := time.Unix(1600000000, 0)
	assert.Equal(t, int64(5), engineValue(Int(5)))
	assert.Equal(t, 1.25, engineValue(Real(1.25)))
	assert.Equal(t, "s", engineValue(Text("s")))
	assert.Equal(t, []byte{}, engineValue(Blob(nil)))
	assert.Equal(t, int64(1600000000), engineValue(Timestamp(at)))
	assert.Nil(t, engineValue(Null{}))
	assert.Nil(t, engineValue(nil))
}

func TestDecodeColumn_NaturalStorageClass(t *testing.T) {
	assert.Equal(t, Int(42), decodeColumn(int64(42)))
	assert.Equal(t, Real(3.5), decodeColumn(3.5))
	assert.Equal(t, Text("hi"), decodeColumn("hi"))
	assert.Equal(t, Blob{0xff}, decodeColumn([]byte{0xff}))
	assert.Equal(t, Null{}, decodeColumn(nil))
}

func TestDecode_IntegerStorage(t *testing.T) {
	n, err := Decode[int8](Int(300))
	require.NoError(t, err)
	assert.Equal(t, int8(44), n, "narrowing truncates without an overflow error")

	f, err := Decode[float64](Int(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	b, err := Decode[bool](Int(1))
	require.NoError(t, err)
	assert.True(t, b)

	b, err = Decode[bool](Int(2))
	require.NoError(t, err)
	assert.False(t, b)

	s, err := Decode[string](Int(42))
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	tm, err := Decode[time.Time](Int(1700000000))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), tm.Unix())
}

func TestDecode_RealStorage(t *testing.T) {
	n, err := Decode[int64](Real(3.9))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	f, err := Decode[float32](Real(0.25))
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f)

	b, err := Decode[bool](Real(1.0))
	require.NoError(t, err)
	assert.True(t, b)

	b, err = Decode[bool](Real(3.0))
	require.NoError(t, err)
	assert.False(t, b)
}

func TestDecode_TextStorage(t *testing.T) {
	n, err := Decode[int64](Text("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = Decode[int64](Text("3.0"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	u, err := Decode[uint16](Text("7"))
	require.NoError(t, err)
	assert.Equal(t, uint16(7), u)

	f, err := Decode[float64](Text("2.5"))
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	b, err := Decode[bool](Text("true"))
	require.NoError(t, err)
	assert.True(t, b)

	s, err := Decode[string](Text("verbatim  "))
	require.NoError(t, err)
	assert.Equal(t, "verbatim  ", s)

	tm, err := Decode[time.Time](Text("1700000000"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), tm.Unix())

	tm, err = Decode[time.Time](Text("2021-11-08 10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 11, 8, 10, 0, 0, 0, time.UTC), tm)

	_, err = Decode[int](Text("forty-two"))
	assert.Error(t, err)

	_, err = Decode[bool](Text("maybe"))
	assert.Error(t, err)
}

func TestDecode_BlobStorage(t *testing.T) {
	raw, err := Decode[[]byte](Blob{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	_, err = Decode[string](Blob{1})
	assert.Error(t, err, "blobs have no coercion path")

	_, err = Decode[int64](Blob{1})
	assert.Error(t, err)
}

func TestDecode_NullAndPointers(t *testing.T) {
	n, err := Decode[int64](Null{})
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := Decode[*string](Null{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = Decode[*string](Int(5))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "5", *p)

	lv, err := Decode[level](Text("12"))
	require.NoError(t, err)
	assert.Equal(t, level(12), lv)
}

func TestDecode_Interfaces(t *testing.T) {
	a, err := Decode[any](Int(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)

	a, err = Decode[any](Null{})
	require.NoError(t, err)
	assert.Nil(t, a)

	v, err := Decode[Value](Text("x"))
	require.NoError(t, err)
	assert.Equal(t, Text("x"), v)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "NULL", Format(Null{}))
	assert.Equal(t, "NULL", Format(nil))
	assert.Equal(t, "12", Format(Int(12)))
	assert.Equal(t, "0.5", Format(Real(0.5)))
	assert.Equal(t, "hi", Format(Text("hi")))
	assert.Equal(t, "x'0aff'", Format(Blob{0x0a, 0xff}))
}
