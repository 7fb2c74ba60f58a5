package sqlq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlq/internal/sqlite"
)

func openFake(t *testing.T, e *fakeEngine) *DB {
	t.Helper()
	db := Open("fake.db", withOpener(e.open))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func assertReleased(t *testing.T, e *fakeEngine, wantStmts int) {
	t.Helper()
	opened, closed, prepared, finalized := e.counts()
	assert.Equal(t, 1, opened, "connections opened")
	assert.Equal(t, opened, closed, "every connection closed")
	assert.Equal(t, wantStmts, prepared, "statements prepared")
	assert.Equal(t, prepared, finalized, "every statement finalized")
}

func TestSession_ReleasesOnSuccess(t *testing.T) {
	e := newFakeEngine()
	e.cols = []string{"a"}
	e.rows = [][]any{{int64(1)}, {int64(2)}}
	db := openFake(t, e)

	rows, err := db.Query("SELECT a FROM t WHERE a > ?", 0).Get()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "SELECT a FROM t WHERE a > ?", e.lastSQL)
	assertReleased(t, e, 1)
}

func TestSession_OpenFailure(t *testing.T) {
	e := newFakeEngine()
	e.openErr = &sqlite.Error{Code: sqlite.CodeCantOpen, Message: "unable to open database file"}
	db := openFake(t, e)

	err := db.ExecSync("CREATE TABLE t (a)")
	require.Error(t, err)
	assert.True(t, IsOpenError(err))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, sqlite.CodeCantOpen, se.Code)
	assert.Equal(t, "unable to open database file", se.Message)
}

func TestSession_PrepareFailureClosesConnection(t *testing.T) {
	tests := []struct {
		name string
		code int
		kind ErrorKind
	}{
		{"sql error is a query failure", sqlite.CodeError, QueryFailed},
		{"anything else is an open failure", sqlite.CodeMisuse, OpenFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine()
			e.prepareErr = &sqlite.Error{Code: tt.code, Message: "no statement"}
			db := openFake(t, e)

			_, err := db.InsertSync("INSERT INTO t VALUES (1)")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assertReleased(t, e, 0)
		})
	}
}

func TestSession_BindFailureReleasesBoth(t *testing.T) {
	e := newFakeEngine()
	e.bindErr = &sqlite.Error{Code: sqlite.CodeRange, Message: "column index out of range"}
	db := openFake(t, e)

	_, err := db.RunSync("UPDATE t SET a = ?", 1)
	require.Error(t, err)
	assert.True(t, IsBindError(err))
	assertReleased(t, e, 1)
}

func TestSession_StepFailureDiscardsRows(t *testing.T) {
	e := newFakeEngine()
	e.cols = []string{"a"}
	e.rows = [][]any{{int64(1)}, {int64(2)}, {int64(3)}}
	e.stepErrAt = 2
	db := openFake(t, e)

	rows, err := db.QuerySync("SELECT a FROM t")
	require.Error(t, err)
	assert.Nil(t, rows, "partial results are never returned")
	assert.True(t, IsQueryError(err))
	assert.Equal(t, "constraint failed", err.(*Error).Message)
	assertReleased(t, e, 1)
}

func TestSession_PanicReleasesBoth(t *testing.T) {
	e := newFakeEngine()
	e.cols = []string{"a"}
	e.rows = [][]any{{int64(1)}}
	e.panicAt = 0
	db := openFake(t, e)

	_, err := db.Query("SELECT a FROM t").Get()
	require.Error(t, err)
	assert.Equal(t, Unexpected, KindOf(err))
	assert.Contains(t, err.Error(), "column read exploded")
	assertReleased(t, e, 1)
}

func TestSession_RunAndInsertReadConnectionCounters(t *testing.T) {
	e := newFakeEngine()
	db := openFake(t, e)

	n, err := db.Run("DELETE FROM t").Get()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	id, err := db.Insert("INSERT INTO t VALUES (1)").Get()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	opened, closed, prepared, finalized := e.counts()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 2, closed)
	assert.Equal(t, 2, prepared)
	assert.Equal(t, 2, finalized)
}
