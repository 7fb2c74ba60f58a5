package sqlq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Accessors(t *testing.T) {
	r := NewRow("id", int64(1), "name", "ann", "blob", []byte("hi"))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"id", "name", "blob"}, r.Columns())

	name, v := r.At(1)
	assert.Equal(t, "name", name)
	assert.Equal(t, Text("ann"), v)

	_, ok := r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, Null{}, r.Value("missing"))

	assert.Equal(t, map[string]any{
		"id":   int64(1),
		"name": "ann",
		"blob": []byte("hi"),
	}, r.Map())
}

func TestRow_DuplicateColumnKeepsFirstPositionLastValue(t *testing.T) {
	r := NewRow("a", int64(1), "b", int64(2), "a", int64(3))

	assert.Equal(t, []string{"a", "b"}, r.Columns())
	assert.Equal(t, Int(3), r.Value("a"))
}

func TestRow_ColumnsIsACopy(t *testing.T) {
	r := NewRow("a", int64(1))
	cols := r.Columns()
	cols[0] = "z"
	assert.Equal(t, []string{"a"}, r.Columns())
}

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	r := NewRow("z", int64(1), "a", "x", "n", nil, "f", 1.5)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","n":null,"f":1.5}`, string(b))
}

func TestRow_FromDuplicateSelect(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.QuerySync("SELECT 1 AS x, 2 AS x, 'y' AS y")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"x", "y"}, rows[0].Columns())
	assert.Equal(t, Int(2), rows[0].Value("x"))
}
