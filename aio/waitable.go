// File: aio/waitable.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// The Waitable/Waiter signaling protocol, grounded on fz::aio_waitable /
// fz::aio_waiter / fz::aio_buffer_event in aio.hpp and aio.cpp. A Waitable
// keeps two LIFO queues of pending parties (raw Waiters and event-loop
// Handlers) and signals at most one per SignalAvailability call.

package aio

import (
	"runtime"
	"sync"
)

// Waiter is a raw callback sink for availability signals. OnBufferAvailability
// is invoked synchronously on whatever thread called SignalAvailability;
// implementations must only signal their own synchronization primitive and
// must never call back into the Waitable or anything it guards.
type Waiter interface {
	OnBufferAvailability(w *Waitable)
}

// EventHandler is the event-loop-integrated counterpart to Waiter. A
// Waitable never talks to the event loop directly: it only ever calls back
// into the handler, which knows how to reach its own loop. This keeps the
// aio core free of any dependency on a concrete event-loop implementation,
// matching libfilezilla's split between lib/aio and lib/event_handler.cpp.
type EventHandler interface {
	// PostEvent asynchronously delivers ev for processing on the handler's
	// own event-loop thread. Returns false if the handler's queue is full
	// and the event was dropped; callers that need a delivery guarantee
	// should fall back to the raw Waiter path instead.
	PostEvent(ev any) bool
	// RemovePending drops any already-queued events for this handler for
	// which pred returns true. Called when the handler withdraws as a
	// waiter so a stale AioBufferEvent cannot be delivered after the fact.
	RemovePending(pred func(ev any) bool)
}

// AioBufferEvent is posted to an EventHandler in place of a direct
// OnBufferAvailability callback, carrying back a reference to the Waitable
// that became available.
type AioBufferEvent struct {
	Waitable *Waitable
}

// Waitable is anything that can announce "more work available" to at most
// one subscriber at a time: the BufferPool, and every Reader/Writer.
type Waitable struct {
	mu              sync.Mutex
	waiters         []Waiter
	handlers        []EventHandler
	activeSignaling Waiter
}

// AddWaiter registers a raw waiter. Equivalent to aio_waitable::add_waiter.
func (w *Waitable) AddWaiter(h Waiter) {
	w.mu.Lock()
	w.waiters = append(w.waiters, h)
	w.mu.Unlock()
}

// AddHandler registers an event-loop handler as a waiter.
func (w *Waitable) AddHandler(h EventHandler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// RemoveWaiter unregisters a raw waiter, blocking (with a yielding spin)
// until any in-flight OnBufferAvailability callback to it has returned.
// This guarantees the caller can safely destroy the waiter afterwards.
func (w *Waitable) RemoveWaiter(h Waiter) {
	w.mu.Lock()
	for w.activeSignaling == h {
		w.mu.Unlock()
		runtime.Gosched()
		w.mu.Lock()
	}
	w.waiters = removeWaiter(w.waiters, h)
	w.mu.Unlock()
}

// RemoveHandler unregisters an event-handler waiter and purges any event
// already posted to it that targets this Waitable, so handler destruction
// can never be followed by a stale delivery.
func (w *Waitable) RemoveHandler(h EventHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purgePending(h)
	w.handlers = removeHandler(w.handlers, h)
}

// RemoveWaiters drops every pending waiter and handler, purging any posted
// events for the handlers. Used by Close and when a reader or writer
// latches a failure.
func (w *Waitable) RemoveWaiters() {
	w.mu.Lock()
	for w.activeSignaling != nil {
		w.mu.Unlock()
		runtime.Gosched()
		w.mu.Lock()
	}
	w.waiters = nil
	for _, h := range w.handlers {
		w.purgePending(h)
	}
	w.handlers = nil
	w.mu.Unlock()
}

func (w *Waitable) purgePending(h EventHandler) {
	self := w
	h.RemovePending(func(ev any) bool {
		be, ok := ev.(AioBufferEvent)
		return ok && be.Waitable == self
	})
}

// SignalAvailability wakes at most one pending party: the most recently
// added raw waiter if any, else the most recently added handler. Fairness
// across waiters is explicitly undefined, matching the original's LIFO pop.
func (w *Waitable) SignalAvailability() {
	w.mu.Lock()
	if n := len(w.waiters); n > 0 {
		h := w.waiters[n-1]
		w.waiters = w.waiters[:n-1]
		w.activeSignaling = h
		w.mu.Unlock()
		h.OnBufferAvailability(w)
		w.mu.Lock()
		w.activeSignaling = nil
		w.mu.Unlock()
		return
	}
	if n := len(w.handlers); n > 0 {
		h := w.handlers[n-1]
		w.handlers = w.handlers[:n-1]
		w.mu.Unlock()
		h.PostEvent(AioBufferEvent{Waitable: w})
		return
	}
	w.mu.Unlock()
}

// signalWaiter is a Waiter that just wakes up a channel, used by the
// threaded reader's worker loop to block on a BufferPool. It must be
// used by pointer: Waiter identity for RemoveWaiter is pointer equality,
// and function values are not comparable so a func-based adapter cannot be
// used here.
type signalWaiter struct {
	ch chan struct{}
}

func newSignalWaiter() *signalWaiter {
	return &signalWaiter{ch: make(chan struct{}, 1)}
}

// OnBufferAvailability implements Waiter.
func (s *signalWaiter) OnBufferAvailability(*Waitable) {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// blockingGet repeatedly calls pool.Get until it succeeds or quit fires.
func blockingGet(pool *BufferPool, quit <-chan struct{}) (*BufferLease, bool) {
	w := newSignalWaiter()
	for {
		if lease := pool.Get(w); lease != nil {
			return lease, true
		}
		select {
		case <-w.ch:
		case <-quit:
			pool.RemoveWaiter(w)
			return nil, false
		}
	}
}

func removeWaiter(s []Waiter, h Waiter) []Waiter {
	out := s[:0]
	for _, v := range s {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}

func removeHandler(s []EventHandler, h EventHandler) []EventHandler {
	out := s[:0]
	for _, v := range s {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}
