package queue

import (
	"sync"
)

// Executor runs jobs. Submit returns false if the job was rejected, in which
// case it will never run.
type Executor interface {
	Submit(job func()) bool
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(job func()) bool

// Submit calls f(job).
func (f ExecutorFunc) Submit(job func()) bool {
	return f(job)
}

// Inline runs each job on the submitting goroutine.
type Inline struct{}

// Submit runs job and returns true.
func (Inline) Submit(job func()) bool {
	job()
	return true
}

// Concurrent runs each job on its own goroutine.
type Concurrent struct{}

// Submit starts job in a new goroutine and returns true.
func (Concurrent) Submit(job func()) bool {
	go job()
	return true
}

// Serial is a single-worker FIFO executor.
//
// The queue is unbounded so Submit never blocks the caller. The worker is
// woken through a 1-buffered signal channel; closing the queue closes the
// channel, which wakes the worker to drain what is left and exit.
//
// Thread-safety: Submit, Len and Close may be called from any goroutine.
type Serial struct {
	mu     sync.Mutex
	jobs   []func()
	closed bool
	signal chan struct{} // Signals job availability (buffered, size 1)
	done   chan struct{} // Closed when the worker exits
}

// NewSerial creates a Serial executor and starts its worker.
func NewSerial() *Serial {
	s := &Serial{
		jobs:   make([]func(), 0, 64), // Pre-allocate for typical workloads
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit appends job to the back of the queue.
// Returns false if the executor is closed.
func (s *Serial) Submit(job func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.jobs = append(s.jobs, job)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case s.signal <- struct{}{}:
	default:
	}

	return true
}

// Len returns the number of jobs waiting to run.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Close stops accepting jobs. Jobs already queued still run.
// Use Done to wait for the worker to drain them.
func (s *Serial) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.signal) // Wakes the worker
}

// Done is closed once the executor is closed and every queued job has run.
func (s *Serial) Done() <-chan struct{} {
	return s.done
}

func (s *Serial) tryDequeue() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.jobs) == 0 {
		return nil, false
	}

	job := s.jobs[0]

	// Nil out the slot so the closure (and what it captured) can be collected.
	s.jobs[0] = nil

	if len(s.jobs) == 1 {
		s.jobs = s.jobs[:0]
	} else {
		s.jobs = s.jobs[1:]
	}

	return job, true
}

func (s *Serial) run() {
	defer close(s.done)

	for {
		if job, ok := s.tryDequeue(); ok {
			job()
			continue
		}

		// The signal channel closes when the executor is closed,
		// so this receive returns immediately from then on.
		<-s.signal

		s.mu.Lock()
		finished := s.closed && len(s.jobs) == 0
		s.mu.Unlock()
		if finished {
			return
		}
	}
}
