package sqlq

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/sqlq/internal/queue"
	"github.com/roach88/sqlq/internal/sqlite"
)

// Task is the deferred result of an operation. See Wait, Get, Done and Then.
type Task[T any] = queue.Task[T]

// Executor is an execution context operations can be scheduled on.
type Executor = queue.Executor

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc = queue.ExecutorFunc

// Execution contexts for Handle.On.
var (
	// Inline runs the operation on the calling goroutine.
	Inline Executor = queue.Inline{}

	// Concurrent runs every operation on its own goroutine.
	Concurrent Executor = queue.Concurrent{}
)

// NewSerialExecutor returns a FIFO single-worker executor. Close it when done.
func NewSerialExecutor() *queue.Serial {
	return queue.NewSerial()
}

// DB is a handle to one SQLite database file.
//
// A DB holds no open connection. Every operation opens its own connection
// and statement, uses them, and releases both before its Task resolves.
// Operations issued through the DB itself run on one serial executor owned
// by the DB, in submission order; use On to pick another executor per call.
//
// Thread-safety: all methods are safe for concurrent use.
type DB struct {
	*Handle

	path    string
	version int64
	opts    sqlite.Options
	open    sqlite.Opener
	log     *slog.Logger
	serial  *queue.Serial
	state   atomic.Int32

	closeOnce sync.Once
}

// Option configures a DB.
type Option func(*DB)

// WithSchemaVersion sets the target schema version the lifecycle gate
// upgrades to. Default: 0.
func WithSchemaVersion(v int64) Option {
	return func(db *DB) {
		db.version = v
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l
		}
	}
}

// WithBusyTimeout sets how long a connection waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(db *DB) {
		db.opts.BusyTimeout = d
	}
}

// WithMaxLength caps the size in bytes of any string or blob a statement
// binds or produces. Binding a larger value fails with BindFailed.
// Default: the engine limit.
func WithMaxLength(n int) Option {
	return func(db *DB) {
		db.opts.MaxLength = n
	}
}

// withOpener swaps the engine, for tests.
func withOpener(o sqlite.Opener) Option {
	return func(db *DB) {
		db.open = o
	}
}

// Open returns a DB for the file at path. Nothing is touched on disk until
// the first operation or lifecycle attachment, so Open never fails; problems
// with the path surface through operations and Observer.OnError.
func Open(path string, opts ...Option) *DB {
	db := &DB{
		path: path,
		open: sqlite.Open,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.log = db.log.With("component", "sqlq", "path", path)
	db.serial = queue.NewSerial()
	db.Handle = &Handle{db: db, ex: db.serial}
	return db
}

// OpenWithObserver opens the DB and attaches obs on its serial executor.
// Operations issued afterwards run once the lifecycle has completed.
func OpenWithObserver(path string, obs Observer, opts ...Option) *DB {
	db := Open(path, opts...)
	db.Attach(obs)
	return db
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// TargetVersion returns the schema version the gate upgrades to.
func (db *DB) TargetVersion() int64 {
	return db.version
}

// Close stops the serial executor and waits for queued operations to finish.
// Operations submitted to it afterwards fail with Unexpected.
//
// Close must not be called from inside an operation running on the DB's own
// executor.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.serial.Close()
		<-db.serial.Done()
	})
	return nil
}

// Handle issues operations on one executor. The DB embeds the Handle bound
// to its serial executor.
type Handle struct {
	db *DB
	ex Executor
}

// On returns a Handle that schedules operations on ex instead of the
// DB's serial executor. Operations on different executors are not ordered
// with respect to each other.
func (h *Handle) On(ex Executor) *Handle {
	if ex == nil {
		ex = h.db.serial
	}
	return &Handle{db: h.db, ex: ex}
}

// DB returns the database the handle belongs to.
func (h *Handle) DB() *DB {
	return h.db
}

func (h *Handle) handle() *Handle {
	return h
}

// Target is implemented by *DB and *Handle. The generic operations
// (QueryAs, QueryFirst) take a Target.
type Target interface {
	handle() *Handle
}
