package sqlq

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlq/internal/sqlite"
)

// openTestDB opens a DB on a fresh file in a temp dir.
func openTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db := Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// mustExec runs statements synchronously, failing the test on error.
func mustExec(t *testing.T, tg Target, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		require.NoError(t, tg.handle().ExecSync(s), s)
	}
}

// fakeEngine is a scripted engine that counts acquired and released
// resources.
type fakeEngine struct {
	mu sync.Mutex

	openErr    error
	prepareErr error
	bindErr    error
	stepErrAt  int // row index whose step fails; -1 for none
	panicAt    int // row index whose column read panics; -1 for none

	cols []string
	rows [][]any

	opened, closed      int
	prepared, finalized int
	lastSQL             string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{stepErrAt: -1, panicAt: -1}
}

func (e *fakeEngine) open(path string, opts sqlite.Options) (sqlite.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opened++
	return &fakeConn{e: e}, nil
}

func (e *fakeEngine) counts() (opened, closed, prepared, finalized int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened, e.closed, e.prepared, e.finalized
}

type fakeConn struct {
	e *fakeEngine
}

func (c *fakeConn) Prepare(query string) (sqlite.Stmt, error) {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	c.e.lastSQL = query
	if c.e.prepareErr != nil {
		return nil, c.e.prepareErr
	}
	c.e.prepared++
	return &fakeStmt{e: c.e, pos: -1}, nil
}

func (c *fakeConn) LastInsertRowID() (int64, error) { return 7, nil }
func (c *fakeConn) TotalChanges() (int64, error)    { return 3, nil }

func (c *fakeConn) Close() error {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	c.e.closed++
	return nil
}

type fakeStmt struct {
	e   *fakeEngine
	pos int
}

func (s *fakeStmt) BindParameterCount() int { return 8 }

func (s *fakeStmt) Bind(pos int, v any) error {
	return s.e.bindErr
}

func (s *fakeStmt) Reset() error {
	s.pos = -1
	return nil
}

func (s *fakeStmt) Step() (bool, error) {
	s.pos++
	if s.pos == s.e.stepErrAt {
		return false, &sqlite.Error{Code: 19, Message: "constraint failed"}
	}
	return s.pos < len(s.e.rows), nil
}

func (s *fakeStmt) Columns() []string { return s.e.cols }

func (s *fakeStmt) Column(i int) any {
	if s.pos == s.e.panicAt {
		panic("column read exploded")
	}
	return s.e.rows[s.pos][i]
}

func (s *fakeStmt) Close() error {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	s.e.finalized++
	return nil
}
