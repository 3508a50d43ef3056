// File: aio/writer.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Writer is the Go analogue of fz::writer_base: a sink that accepts leased
// buffers and a two-phase finalize (flush, then fsync) before close.
// Grounded on writer.hpp/writer.cpp's writer_base, writer_factory and
// writer_factory_holder.
package aio

import (
	"fmt"
	"sync"
)

// Writer consumes buffers handed to it by a producer and supports a
// finalize/close lifecycle, grounded on writer_base.
type Writer interface {
	Waitable() *Waitable

	// Preallocate reserves size bytes of backing storage ahead of the
	// current write position. May be a no-op for writers that have no
	// useful notion of preallocation, matching writer_base::preallocate's
	// do-nothing default. FileWriter returns an error if the writer isn't in
	// a plain streaming state (buffers still queued, or already
	// finalizing/failed); ThreadedWriter and BufferWriter do not check the
	// writer's state.
	Preallocate(size int64) error

	// AddBuffer hands ownership of lease to the writer on ResultOk: the
	// caller must not touch it again. On ResultWait the writer could not
	// accept more data right now (its queue is full); w is registered and
	// the caller must retry the same lease once signalled. ResultError
	// means the writer has failed permanently or finalize has already
	// begun, and the caller retains the lease; the exception is
	// BufferWriter rejecting a buffer that would exceed its size limit,
	// which releases that lease itself.
	AddBuffer(lease *BufferLease, w Waiter) Result
	// AddBufferForHandler is the event-handler-integrated counterpart.
	AddBufferForHandler(lease *BufferLease, h EventHandler) Result

	// Finalize signals that no more buffers will be added and requests the
	// writer flush everything already queued, then fsync it where the
	// writer was configured to. Returns ResultWait
	// if finalize work is still in flight (w/h registered as with
	// AddBuffer), ResultOk once finalize has fully completed.
	Finalize(w Waiter) Result
	FinalizeForHandler(h EventHandler) Result

	// Close stops the writer and releases resources. Safe to call more
	// than once; does not implicitly finalize.
	Close()

	Name() string
}

// writerState is the shared bookkeeping every concrete Writer embeds,
// grounded on writer_base's protected members (error_, finalizing_).
type writerState struct {
	Waitable

	mu         sync.Mutex
	name       string
	failed     bool
	lastErr    error
	finalizing bool
	finalized  bool
	closed     bool
}

func newWriterState(name string) *writerState {
	return &writerState{name: name}
}

func (s *writerState) Name() string { return s.name }

func (s *writerState) setFailed(err error) {
	s.mu.Lock()
	if !s.failed {
		s.failed = true
		s.lastErr = err
	}
	s.mu.Unlock()
	s.RemoveWaiters()
}

func (s *writerState) isFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *writerState) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *writerState) beginFinalize() (already bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	already = s.finalizing
	s.finalizing = true
	return already
}

func (s *writerState) setFinalized() {
	s.mu.Lock()
	s.finalized = true
	s.mu.Unlock()
}

func (s *writerState) isFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

func (s *writerState) isFinalizing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizing
}

func (s *writerState) markClosed() (already bool) {
	s.mu.Lock()
	already = s.closed
	s.closed = true
	s.mu.Unlock()
	return already
}

func (s *writerState) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WriterFactory produces fresh, independent Writers over the same logical
// sink, grounded on writer_factory.
type WriterFactory interface {
	Open(logger Logger) (Writer, error)
	Name() string
	Clone() WriterFactory
}

// WriterFactoryHolder owns a WriterFactory and clones-by-copy, grounded on
// writer_factory_holder.
type WriterFactoryHolder struct {
	factory WriterFactory
}

// NewWriterFactoryHolder wraps f.
func NewWriterFactoryHolder(f WriterFactory) WriterFactoryHolder {
	return WriterFactoryHolder{factory: f}
}

// Valid reports whether the holder wraps a factory.
func (h WriterFactoryHolder) Valid() bool { return h.factory != nil }

// Open opens a new Writer via the held factory.
func (h WriterFactoryHolder) Open(logger Logger) (Writer, error) {
	if h.factory == nil {
		return nil, fmt.Errorf("aio: %w: no writer factory held", ErrConstructionFailed)
	}
	return h.factory.Open(logger)
}

// Clone returns a holder wrapping an independent copy of the same factory.
func (h WriterFactoryHolder) Clone() WriterFactoryHolder {
	if h.factory == nil {
		return WriterFactoryHolder{}
	}
	return WriterFactoryHolder{factory: h.factory.Clone()}
}

// Name forwards to the held factory, or "" when the holder is empty.
func (h WriterFactoryHolder) Name() string {
	if h.factory == nil {
		return ""
	}
	return h.factory.Name()
}
