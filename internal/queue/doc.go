// Package queue provides the execution contexts sqlq schedules operations on
// and the Task type callers observe results through.
//
// EXECUTORS:
//
//   - Serial: one worker goroutine draining an unbounded FIFO. Jobs run one
//     at a time, in submission order, each to completion.
//   - Concurrent: every job on its own goroutine. No ordering.
//   - Inline: the job runs on the submitting goroutine before Submit returns.
//
// TASKS:
//
// A Task is resolved exactly once by the job that produced it. Observers wait
// with Wait(ctx) or subscribe with Then. Cancelling the observer's context
// never stops the job; there is no cancellation primitive for scheduled work.
package queue
