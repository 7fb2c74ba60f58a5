package sqlq

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/sqlq/internal/sqlite"
)

// Observer receives schema lifecycle events for a DB.
//
// Every callback gets a Handle bound to the Inline executor: operations it
// issues, async ones included, run to completion before the call returns.
// Callbacks run on the DB's serial executor, so operations queued on the DB
// after Attach wait until the whole lifecycle has finished.
type Observer interface {
	// OnCreateDatabase is called when the database file does not exist yet.
	OnCreateDatabase(h *Handle)

	// OnUpgrade is called when the persisted version is below the target.
	OnUpgrade(h *Handle, oldVersion, newVersion int64)

	// OnOpenDatabase is called once per attachment after versioning is done.
	OnOpenDatabase(h *Handle)

	// OnError is called when the lifecycle cannot continue.
	OnError(h *Handle, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are no-ops.
type ObserverFuncs struct {
	Create  func(h *Handle)
	Upgrade func(h *Handle, oldVersion, newVersion int64)
	Open    func(h *Handle)
	Error   func(h *Handle, err error)
}

// OnCreateDatabase calls f.Create if set.
func (f ObserverFuncs) OnCreateDatabase(h *Handle) {
	if f.Create != nil {
		f.Create(h)
	}
}

// OnUpgrade calls f.Upgrade if set.
func (f ObserverFuncs) OnUpgrade(h *Handle, oldVersion, newVersion int64) {
	if f.Upgrade != nil {
		f.Upgrade(h, oldVersion, newVersion)
	}
}

// OnOpenDatabase calls f.Open if set.
func (f ObserverFuncs) OnOpenDatabase(h *Handle) {
	if f.Open != nil {
		f.Open(h)
	}
}

// OnError calls f.Error if set.
func (f ObserverFuncs) OnError(h *Handle, err error) {
	if f.Error != nil {
		f.Error(h, err)
	}
}

// GateState is the progress of the most recent attachment.
type GateState int32

const (
	Unattached     GateState = iota // nothing run yet, or the last attach failed early
	Created                         // file created and target version written
	VersionChecked                  // persisted version is at least the target
	Ready                           // OnOpenDatabase has returned
)

func (s GateState) String() string {
	switch s {
	case Unattached:
		return "unattached"
	case Created:
		return "created"
	case VersionChecked:
		return "version_checked"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("GateState(%d)", int32(s))
	}
}

// GateState returns the lifecycle state of the most recent attachment.
func (db *DB) GateState() GateState {
	return GateState(db.state.Load())
}

// Attach runs the schema lifecycle for obs on the DB's serial executor.
//
// A missing file fires OnCreateDatabase and then persists the target
// version. A persisted version below the target fires OnUpgrade and then
// persists the target. OnOpenDatabase fires last. Failures go to OnError
// and end the attachment; the returned Task carries the same error.
//
// Attaching again restarts the sequence; on an up-to-date file only
// OnOpenDatabase fires.
func (db *DB) Attach(obs Observer) *Task[struct{}] {
	if obs == nil {
		obs = ObserverFuncs{}
	}
	return schedule(db.Handle, "attach", versionQuery, func() (struct{}, error) {
		return struct{}{}, db.attach(obs)
	})
}

func (db *DB) attach(obs Observer) error {
	db.setState(Unattached)
	h := &Handle{db: db, ex: Inline}

	fail := func(err error) error {
		db.log.Error("schema lifecycle failed", "error", err)
		obs.OnError(h, err)
		return err
	}

	fresh, err := db.missing()
	if err != nil {
		return fail(err)
	}
	if fresh {
		db.log.Info("creating database", "version", db.version)
		obs.OnCreateDatabase(h)
		if err := db.writeVersion(db.version); err != nil {
			return fail(err)
		}
		db.setState(Created)
	}

	old := db.readVersion()
	db.log.Info("schema version check", "old", old, "new", db.version)
	if old < db.version {
		obs.OnUpgrade(h, old, db.version)
		if err := db.writeVersion(db.version); err != nil {
			return fail(err)
		}
	}
	db.setState(VersionChecked)

	obs.OnOpenDatabase(h)
	db.setState(Ready)
	return nil
}

// missing reports whether the database file has yet to be created. A
// directory or an unreadable path is OpenFailed.
func (db *DB) missing() (bool, error) {
	info, err := os.Stat(db.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	case err != nil:
		return false, &Error{Kind: OpenFailed, Message: err.Error(), Code: sqlite.CodeCantOpen, Err: err}
	case info.IsDir():
		return false, &Error{
			Kind:    OpenFailed,
			Message: fmt.Sprintf("%s is a directory", db.path),
			Code:    sqlite.CodeCantOpen,
		}
	}
	return false, nil
}

// readVersion returns the persisted version, or 0 if it cannot be read.
func (db *DB) readVersion() int64 {
	v, err := scalar[int64](db.Handle, versionQuery, 0, nil)
	if err != nil {
		db.log.Warn("reading schema version failed", "error", err)
		return 0
	}
	return v
}

// writeVersion persists v in its own session.
func (db *DB) writeVersion(v int64) error {
	_, err := withStatement(db, fmt.Sprintf("%s = %d", versionQuery, v), func(_ sqlite.Conn, stmt sqlite.Stmt) (struct{}, error) {
		return struct{}{}, drain(stmt)
	})
	return err
}

func (db *DB) setState(s GateState) {
	db.state.Store(int32(s))
}
