// File: aio/view_reader.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// ViewReader and StringReader serve an in-memory buffer synchronously on the
// caller's goroutine, grounded on view_reader/string_reader in
// reader.hpp/reader.cpp: do_get_buffer delivers min(buffer.capacity(),
// remaining_) bytes per call, looping across as many pool buffers as the
// payload needs rather than requiring it fit in one. No worker goroutine is
// spawned for either.
package aio

import "fmt"

// ViewReader serves the bytes of data, one pool buffer at a time, until
// exhausted, then reports EOF. data is not copied by NewViewReader; the
// caller must not mutate it for the lifetime of the reader.
type ViewReader struct {
	*readerState
	pool *BufferPool
	data []byte
}

// NewViewReader wraps data for delivery through pool-leased buffers, split
// across as many buffers as data.
func NewViewReader(name string, pool *BufferPool, data []byte) *ViewReader {
	n := uint64(len(data))
	return &ViewReader{readerState: newReaderState(name, 0, n, n), pool: pool, data: data}
}

func (r *ViewReader) Waitable() *Waitable { return &r.readerState.Waitable }

func (r *ViewReader) getBuffer(w Waiter, h EventHandler) (*BufferLease, Result) {
	if r.isFailed() {
		return nil, ResultError
	}
	remaining := r.remainingCount()
	if remaining == 0 {
		return nil, ResultOk // eof
	}
	var lease *BufferLease
	if w != nil {
		lease = r.pool.Get(w)
	} else {
		lease = r.pool.GetForHandler(h)
	}
	if lease == nil {
		return nil, ResultWait
	}
	buf := lease.Buffer()
	pos := r.startOffsetValue() + int64(r.Size()) - int64(remaining)
	n := uint64(buf.Capacity())
	if n > remaining {
		n = remaining
	}
	buf.Append(r.data[pos : pos+int64(n)])
	r.consume(int(n))
	r.markGetBufferCalled()
	return lease, ResultOk
}

// GetBuffer implements Reader.
func (r *ViewReader) GetBuffer(w Waiter) (*BufferLease, Result) { return r.getBuffer(w, nil) }

// GetBufferForHandler implements Reader.
func (r *ViewReader) GetBufferForHandler(h EventHandler) (*BufferLease, Result) {
	return r.getBuffer(nil, h)
}

// Seek implements Reader, validated and short-circuited the same way
// ThreadedReader.Seek is: both embed a *readerState and go through its
// checkSeek/applySeek pair.
func (r *ViewReader) Seek(offset int64, size uint64) bool {
	resolved, changed, ok := r.checkSeek(offset, size)
	if !ok {
		return false
	}
	if !changed {
		return true
	}
	r.applySeek(offset, resolved)
	return true
}

// Rewind implements Reader.
func (r *ViewReader) Rewind() bool { return r.Seek(r.startOffsetValue(), r.Size()) }

// Close implements Reader.
func (r *ViewReader) Close() {
	if r.markClosed() {
		return
	}
	r.RemoveWaiters()
}

// StringReader is a ViewReader over the bytes of a string, grounded on
// string_reader, which additionally owns the backing storage so the caller
// can drop its own copy immediately.
type StringReader struct {
	*ViewReader
	owned string
}

// NewStringReader copies s and serves it like a ViewReader.
func NewStringReader(name string, pool *BufferPool, s string) *StringReader {
	return &StringReader{ViewReader: NewViewReader(name, pool, []byte(s)), owned: s}
}

// ViewReaderFactory and StringReaderFactory are the ReaderFactory
// counterparts, grounded on view_reader_factory/string_reader_factory.
type ViewReaderFactory struct {
	name string
	data []byte
}

// NewViewReaderFactory returns a factory producing ViewReaders over data.
func NewViewReaderFactory(name string, data []byte) *ViewReaderFactory {
	return &ViewReaderFactory{name: name, data: data}
}

func (f *ViewReaderFactory) Open(_ Logger, pool *BufferPool, offset int64, size uint64, _ int) (Reader, error) {
	r := NewViewReader(f.name, pool, f.data)
	if offset != 0 || size != NoSize {
		if !r.Seek(offset, size) {
			return nil, fmt.Errorf("aio: view reader %s: seek(%d, %d) out of range", f.name, offset, size)
		}
	}
	return r, nil
}
func (f *ViewReaderFactory) Name() string    { return f.name }
func (f *ViewReaderFactory) Size() uint64    { return uint64(len(f.data)) }

// Seekable implements ReaderFactory: a view's length is always known.
func (f *ViewReaderFactory) Seekable() bool { return true }

// Mtime implements ReaderFactory. An in-memory view has no mtime of its own.
func (f *ViewReaderFactory) Mtime() (int64, bool) { return 0, false }

// MinBufferUsage implements ReaderFactory.
func (f *ViewReaderFactory) MinBufferUsage() int { return 1 }

// MultipleBufferUsage implements ReaderFactory: view_reader never overrides
// the reader_factory base's false default.
func (f *ViewReaderFactory) MultipleBufferUsage() bool { return false }

// PreferredBufferCount implements ReaderFactory.
func (f *ViewReaderFactory) PreferredBufferCount() int { return 1 }

func (f *ViewReaderFactory) Clone() ReaderFactory {
	return &ViewReaderFactory{name: f.name, data: f.data}
}

type StringReaderFactory struct {
	name string
	s    string
}

// NewStringReaderFactory returns a factory producing StringReaders over s.
func NewStringReaderFactory(name, s string) *StringReaderFactory {
	return &StringReaderFactory{name: name, s: s}
}

func (f *StringReaderFactory) Open(_ Logger, pool *BufferPool, offset int64, size uint64, _ int) (Reader, error) {
	r := NewStringReader(f.name, pool, f.s)
	if offset != 0 || size != NoSize {
		if !r.Seek(offset, size) {
			return nil, fmt.Errorf("aio: string reader %s: seek(%d, %d) out of range", f.name, offset, size)
		}
	}
	return r, nil
}
func (f *StringReaderFactory) Name() string       { return f.name }
func (f *StringReaderFactory) Size() uint64       { return uint64(len(f.s)) }

// Seekable implements ReaderFactory: a string's length is always known.
func (f *StringReaderFactory) Seekable() bool { return true }

// Mtime implements ReaderFactory. An in-memory string has no mtime of its own.
func (f *StringReaderFactory) Mtime() (int64, bool) { return 0, false }

// MinBufferUsage implements ReaderFactory.
func (f *StringReaderFactory) MinBufferUsage() int { return 1 }

// MultipleBufferUsage implements ReaderFactory: string_reader never
// overrides the reader_factory base's false default.
func (f *StringReaderFactory) MultipleBufferUsage() bool { return false }

// PreferredBufferCount implements ReaderFactory.
func (f *StringReaderFactory) PreferredBufferCount() int { return 1 }

func (f *StringReaderFactory) Clone() ReaderFactory {
	return &StringReaderFactory{name: f.name, s: f.s}
}
