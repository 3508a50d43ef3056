// File: aio/lease.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// BufferLease is the Go analogue of fz::buffer_lease: an exclusive,
// move-only handle to one pool buffer. Go has no destructors or move
// constructors, so ownership transfer is by convention: once a *BufferLease
// is pushed into a queue or handed to another component, the original
// holder must not call Release or touch the Buffer again. Every function in
// this package that hands off a lease documents this.

package aio

// BufferLease is an exclusive handle to one buffer owned by a BufferPool.
// The zero value owns no buffer (equivalent to a default-constructed
// buffer_lease, Valid() reports false).
type BufferLease struct {
	buf  Buffer
	pool *BufferPool
}

// Valid reports whether this lease currently owns a buffer.
func (l *BufferLease) Valid() bool { return l != nil && l.pool != nil }

// Buffer returns the underlying buffer for reading/writing. The returned
// pointer aliases lease-owned storage and must not be used after Release.
func (l *BufferLease) Buffer() *Buffer { return &l.buf }

// Release returns the buffer to its pool and triggers one availability
// signal. Idempotent: releasing an already-released or zero-value lease is
// a no-op, matching buffer_lease::release().
func (l *BufferLease) Release() {
	if l == nil || l.pool == nil {
		return
	}
	p := l.pool
	buf := l.buf
	l.pool = nil
	l.buf = Buffer{}
	p.release(buf)
}

func newBufferLease(buf Buffer, pool *BufferPool) *BufferLease {
	return &BufferLease{buf: buf, pool: pool}
}
