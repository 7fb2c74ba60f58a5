// Package sqlite is the narrow capability layer between sqlq and the
// embedded SQLite engine.
//
// The rest of the module never touches the driver directly. It sees only:
//   - Conn: open/close, prepare, last-insert-rowid, total-changes
//   - Stmt: bind-by-position, reset, step, column-by-index, finalize
//   - Error: the engine's error message and primary result code
//
// The production implementation sits on github.com/mattn/go-sqlite3 at the
// database/sql/driver level, below database/sql, so no connection pool or
// statement cache exists between a caller and the engine.
//
// # Driver Notes
//
// Connections are opened and statements prepared and finalized by
// go-sqlite3. Binding, stepping and column reads go through the C API on the
// driver's statement handle: the driver's rows convert values by declared
// column type (BOOLEAN to bool, DATE/DATETIME/TIMESTAMP to time) and bind
// lazily on the first step. Here a column is always reported in its storage
// class, and a bind failure surfaces from Bind.
package sqlite
