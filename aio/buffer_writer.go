// File: aio/buffer_writer.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// BufferWriter appends every buffer handed to it into an in-memory slice
// synchronously, grounded on buffer_writer/buffer_writer_factory in
// writer.hpp/writer.cpp, including its size-limit enforcement (the original
// caps total size so an unbounded peer cannot exhaust memory).
package aio

// BufferWriter accumulates written data into memory. Intended for tests and
// for small control-channel payloads, not bulk transfer.
type BufferWriter struct {
	*writerState

	maxSize int
	data    []byte
}

// NewBufferWriter returns a BufferWriter that rejects writes once its
// accumulated size would exceed maxSize. maxSize <= 0 means unlimited.
func NewBufferWriter(name string, maxSize int) *BufferWriter {
	return &BufferWriter{writerState: newWriterState(name), maxSize: maxSize}
}

func (b *BufferWriter) Waitable() *Waitable { return &b.writerState.Waitable }

// Preallocate implements Writer, matching buffer_writer::preallocate:
// rejects a size that would exceed maxSize outright, otherwise grows the
// backing slice's capacity up front so later appends don't reallocate.
func (b *BufferWriter) Preallocate(size int64) error {
	if size < 0 {
		return ErrInvalidSeek
	}
	if b.maxSize > 0 && size > int64(b.maxSize) {
		return ErrSizeLimitExceeded
	}
	if int64(cap(b.data)) < size {
		grown := make([]byte, len(b.data), size)
		copy(grown, b.data)
		b.data = grown
	}
	return nil
}

// Bytes returns everything written so far. The returned slice aliases
// internal storage and must not be retained across further writes.
func (b *BufferWriter) Bytes() []byte { return b.data }

func (b *BufferWriter) addBuffer(lease *BufferLease, waiter Waiter, h EventHandler) Result {
	if b.isFailed() {
		return ResultError
	}
	if lease == nil || !lease.Valid() || lease.Buffer().Empty() {
		lease.Release()
		return ResultOk
	}
	if b.isFinalizing() {
		return ResultError
	}
	defer lease.Release()
	buf := lease.Buffer()
	if b.maxSize > 0 && len(b.data)+buf.Len() > b.maxSize {
		b.setFailed(ErrSizeLimitExceeded)
		return ResultError
	}
	b.data = append(b.data, buf.Bytes()...)
	return ResultOk
}

// AddBuffer implements Writer.
func (b *BufferWriter) AddBuffer(lease *BufferLease, w Waiter) Result {
	return b.addBuffer(lease, w, nil)
}

// AddBufferForHandler implements Writer.
func (b *BufferWriter) AddBufferForHandler(lease *BufferLease, h EventHandler) Result {
	return b.addBuffer(lease, nil, h)
}

// Finalize implements Writer. BufferWriter has no asynchronous work so
// finalize completes immediately.
func (b *BufferWriter) Finalize(Waiter) Result {
	b.beginFinalize()
	b.setFinalized()
	return ResultOk
}

// FinalizeForHandler implements Writer.
func (b *BufferWriter) FinalizeForHandler(EventHandler) Result {
	return b.Finalize(nil)
}

// Close implements Writer.
func (b *BufferWriter) Close() {
	if b.markClosed() {
		return
	}
	b.RemoveWaiters()
}

// BufferWriterFactory is the WriterFactory counterpart, grounded on
// buffer_writer_factory.
type BufferWriterFactory struct {
	name    string
	maxSize int
}

// NewBufferWriterFactory returns a factory producing BufferWriters.
func NewBufferWriterFactory(name string, maxSize int) *BufferWriterFactory {
	return &BufferWriterFactory{name: name, maxSize: maxSize}
}

func (f *BufferWriterFactory) Open(Logger) (Writer, error) {
	return NewBufferWriter(f.name, f.maxSize), nil
}
func (f *BufferWriterFactory) Name() string { return f.name }
func (f *BufferWriterFactory) Clone() WriterFactory {
	return &BufferWriterFactory{name: f.name, maxSize: f.maxSize}
}
