// File: aio/buffer.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Buffer is a non-owning, fixed-capacity byte region with a fill cursor,
// grounded directly on fz::nonowning_buffer from the original. It is
// mutated only by whoever currently holds the BufferLease wrapping it.

package aio

// Buffer is a fixed-capacity region of some backing storage (heap or shared
// memory) together with a fill cursor. It never owns the memory it points
// into; BufferPool owns the mapping, Buffer only describes a slice of it.
type Buffer struct {
	base []byte // len(base) == capacity, always
	fill int
}

func newBuffer(base []byte) Buffer {
	return Buffer{base: base}
}

// Capacity returns the fixed size of the underlying region.
func (b *Buffer) Capacity() int { return len(b.base) }

// Len returns the number of filled bytes, 0 <= Len() <= Capacity().
func (b *Buffer) Len() int { return b.fill }

// Remaining returns Capacity()-Len(), the number of bytes that can still be
// appended before the buffer is full.
func (b *Buffer) Remaining() int { return len(b.base) - b.fill }

// Empty reports whether the buffer holds no data.
func (b *Buffer) Empty() bool { return b.fill == 0 }

// Full reports whether the buffer has no remaining capacity.
func (b *Buffer) Full() bool { return b.fill == len(b.base) }

// Bytes returns the filled portion of the buffer. The returned slice aliases
// the underlying storage and is only valid while the owning lease is held.
func (b *Buffer) Bytes() []byte { return b.base[:b.fill] }

// Free returns the unfilled tail of the buffer, a destination for a single
// read/append call. len(Free()) == Remaining().
func (b *Buffer) Free() []byte { return b.base[b.fill:] }

// Add advances the fill cursor by n bytes, as if n bytes were written into
// the slice previously returned by Free. Equivalent to nonowning_buffer::add.
func (b *Buffer) Add(n int) {
	b.fill += n
	if b.fill > len(b.base) {
		panic("aio: Buffer.Add overflowed capacity")
	}
}

// Append copies p into the buffer's free tail and advances the fill cursor.
// Equivalent to nonowning_buffer::append. Panics if p does not fit; callers
// are expected to size p against Remaining() first (the readers in this
// package always do).
func (b *Buffer) Append(p []byte) {
	n := copy(b.base[b.fill:], p)
	if n != len(p) {
		panic("aio: Buffer.Append overflowed capacity")
	}
	b.fill += n
}

// Consume drops n bytes from the front of the filled region, shifting the
// remainder down. Equivalent to nonowning_buffer::consume, used by writers
// draining a partially-written buffer.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.fill {
		panic("aio: Buffer.Consume out of range")
	}
	copy(b.base, b.base[n:b.fill])
	b.fill -= n
}

// Reset empties the buffer without releasing it to the pool.
func (b *Buffer) Reset() { b.fill = 0 }
