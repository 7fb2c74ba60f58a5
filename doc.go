// Package sqlq is a typed, queued access layer over an embedded SQLite file.
//
// A DB names one database file. It holds no open connection: every
// operation opens a connection, prepares one statement, binds its
// arguments, steps it, decodes what it needs and then releases both the
// statement and the connection before its result is delivered.
//
// OPERATIONS:
//
//	db := sqlq.Open("app.db", sqlq.WithSchemaVersion(3))
//	defer db.Close()
//
//	id, err := db.Insert("INSERT INTO users(name) VALUES (?)", "ann").Get()
//	rows, err := db.Query("SELECT * FROM users").Wait(ctx)
//	users, err := sqlq.QueryAs[User](db, "SELECT id, name FROM users").Get()
//	n, err := db.ScalarIntSync("SELECT count(*) FROM users", -1)
//
// Async operations return a *Task. Operations issued on the DB run one at a
// time, in submission order, on a serial executor the DB owns. On selects a
// different executor for a single call:
//
//	db.On(sqlq.Concurrent).Query("SELECT ...")
//
// Every operation has a Sync variant that runs on the calling goroutine.
//
// VALUES:
//
// Arguments and results are one of Null, Int, Real, Text, Blob or Timestamp.
// Typed targets receive values coerced to their field types; see Decode.
//
// SCHEMA LIFECYCLE:
//
// Attach (or OpenWithObserver) drives an Observer through create, upgrade
// and open using PRAGMA user_version as the persisted schema version. The
// lifecycle runs as the first job on the DB's serial executor.
//
// ERRORS:
//
// Every failure is an *Error whose Kind is OpenFailed, BindFailed,
// QueryFailed, DecodeFailed or Unexpected. Results are all-or-nothing: a
// failure part way through a query discards any rows already read.
package sqlq
