package queue

import (
	"context"
	"sync"
)

// Task is the deferred result of a scheduled job.
//
// Thread-safety: every method may be called from any goroutine.
type Task[T any] struct {
	id   string
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	val       T
	err       error
	callbacks []func(T, error)
}

// NewTask creates an unresolved Task and the function that resolves it.
// Only the first call to resolve has any effect.
func NewTask[T any](id string) (*Task[T], func(T, error)) {
	t := &Task[T]{
		id:   id,
		done: make(chan struct{}),
	}
	return t, t.resolve
}

// Resolved returns a Task that is already complete.
func Resolved[T any](id string, val T, err error) *Task[T] {
	t, resolve := NewTask[T](id)
	resolve(val, err)
	return t
}

// ID returns the identifier the task was created with.
func (t *Task[T]) ID() string {
	return t.id
}

// Done is closed once the task is resolved.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task is resolved or ctx is done. A cancelled ctx
// only stops the wait; the job keeps running.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get blocks until the task is resolved.
func (t *Task[T]) Get() (T, error) {
	<-t.done
	return t.val, t.err
}

// Then registers fn to receive the result. fn runs on the goroutine that
// resolves the task, or immediately if it is already resolved.
func (t *Task[T]) Then(fn func(T, error)) {
	t.mu.Lock()
	if !t.resolved {
		t.callbacks = append(t.callbacks, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn(t.val, t.err)
}

func (t *Task[T]) resolve(val T, err error) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.val = val
	t.err = err
	t.resolved = true
	callbacks := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(val, err)
	}
}
