// File: threadpool/threadpool.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Package threadpool spawns the dedicated worker goroutines the threaded
// reader and writer need for their blocking syscall loops. It is a
// deliberately simplified descendant of the teacher's
// internal/concurrency/threadpool.go (itself a thin wrapper over
// core/concurrency/executor.go's work-stealing Executor): that executor is
// built for many short transient tasks pulled off a shared queue, but
// threaded_reader/threaded_writer each need exactly one long-lived blocking
// worker for their lifetime, joined on Close. A task-submission pool would
// add indirection without buying anything here, so this package keeps the
// teacher's Spawn/Join vocabulary and WaitGroup-based join but drops the
// queue, work-stealing and dynamic resize machinery entirely.
package threadpool

import "sync"

// Task represents one dedicated worker goroutine.
type Task struct {
	wg   sync.WaitGroup
	once sync.Once
}

// Spawn starts fn on a new goroutine and returns a handle to join it.
func Spawn(fn func()) *Task {
	t := &Task{}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
	return t
}

// Join blocks until the worker goroutine returns. Safe to call more than
// once and from more than one goroutine.
func (t *Task) Join() {
	t.wg.Wait()
}
