// File: aio/reader.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Reader is the Go analogue of fz::reader_base: a source of leased buffers
// that may have to make the caller wait for I/O in flight. Grounded on
// reader.hpp/reader.cpp's reader_base, reader_factory and
// reader_factory_holder.

package aio

import (
	"fmt"
	"sync"
)

// Reader produces a sequence of filled buffers. GetBuffer returns ResultOk
// with a lease the caller owns, ResultWait if no buffer is ready yet (the
// caller is registered with the Waitable and will be signalled), or
// ResultError if the reader has failed permanently.
//
// Implementations are grounded on reader_base: Seek/Rewind discard any
// buffered-ahead data and restart the underlying source at a new position;
// Close is idempotent and safe to call from any goroutine; the embedded
// Waitable is signalled exactly once per buffer that becomes available
// after a ResultWait.
type Reader interface {
	Waitable() *Waitable

	// GetBuffer attempts to hand back the next buffer. w is registered as a
	// waiter on ResultWait; it must not be reused across readers.
	GetBuffer(w Waiter) (*BufferLease, Result)
	// GetBufferForHandler is the event-handler-integrated counterpart.
	GetBufferForHandler(h EventHandler) (*BufferLease, Result)

	// Seek moves the read position to offset and re-arms delivery of size
	// bytes (NoSize for unbounded). Returns false if offset+size overflows,
	// exceeds the source's known total size, or the source isn't seekable
	// and offset is nonzero. After a failed Seek the reader is in an
	// undefined state and should be closed, matching reader_base::seek.
	Seek(offset int64, size uint64) bool
	// Rewind is equivalent to Seek(start_offset, size) with the reader's own
	// currently configured start offset and size, re-delivering the same
	// bounded range from its beginning rather than jumping to absolute 0.
	Rewind() bool

	// Close stops the reader and releases any resources it holds. Safe to
	// call multiple times.
	Close()

	// Name identifies the reader for logging, matching reader_base::name().
	Name() string
	// Size reports the total size of the underlying data, or NoSize if
	// unknown.
	Size() uint64
	// Seekable reports whether this reader's source has a known total size;
	// only such readers can be seeked to a nonzero offset, matching
	// reader_base::seekable. Seeks and rewinds to offset 0 are accepted
	// either way.
	Seekable() bool
	// Mtime reports the source's last modification time as unix
	// nanoseconds, or ok == false if indeterminate. reader_base itself
	// never tracks this — only reader_factory does — so concrete readers
	// report it through the factory, not here.
	Mtime() (unixNano int64, ok bool)
}

// readerState is the shared state machine every concrete Reader embeds,
// grounded on reader_base's protected members (start_offset_, size_,
// remaining_, error_) plus the mutex the threaded variants add around them.
// remaining tracks how many bytes are still owed for the current seek range;
// NoSize means unbounded (deliver until the source's own EOF).
type readerState struct {
	Waitable

	mu              sync.Mutex
	name            string
	startOffset     int64
	size            uint64
	remaining       uint64
	maxSize         uint64
	getBufferCalled bool
	failed          bool
	closed          bool
	lastErr         error
}

// newReaderState constructs the state for a reader delivering size bytes
// starting at startOffset, out of a source whose total size is maxSize
// (NoSize if unknown, which also makes the reader unseekable — matching
// file_reader::seekable's max_size_ != nosize check).
func newReaderState(name string, startOffset int64, size uint64, maxSize uint64) *readerState {
	return &readerState{name: name, startOffset: startOffset, size: size, remaining: size, maxSize: maxSize}
}

func (s *readerState) Name() string { return s.name }

func (s *readerState) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Seekable reports whether the source's total size is known. view_reader and
// string_reader are always seekable since their length is always known;
// file_reader is seekable exactly when it could probe the file's size.
func (s *readerState) Seekable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSize != NoSize
}

// Mtime always reports indeterminate: reader_base has no mtime of its own,
// only reader_factory does (see FileReaderFactory.Mtime).
func (s *readerState) Mtime() (int64, bool) { return 0, false }

// checkSeek mirrors reader_base::seek's validation and no-op short circuit.
// It rejects an offset/size combination that overflows or exceeds the
// source's known total size, rejects any nonzero-offset seek on a source
// whose size isn't known, and reports whether anything would actually
// change so the caller can skip tearing down buffered state for a seek to
// the position it already occupies.
func (s *readerState) checkSeek(offset int64, size uint64) (resolved uint64, changed bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 {
		return 0, false, false
	}
	seekable := s.maxSize != NoSize
	if size != NoSize {
		if NoSize-size <= uint64(offset) {
			return 0, false, false // offset+size overflows
		}
		if seekable && uint64(offset)+size > s.maxSize {
			return 0, false, false // range unfulfillable
		}
	} else if seekable && uint64(offset) > s.maxSize {
		return 0, false, false
	}
	if !seekable && offset != 0 {
		return 0, false, false
	}

	resolved = size
	if resolved == NoSize {
		resolved = s.maxSize
		if resolved != NoSize {
			resolved -= uint64(offset)
		}
	}

	changed = s.getBufferCalled || offset != s.startOffset || resolved != s.size
	return resolved, changed, true
}

// markGetBufferCalled records that at least one buffer has been delivered
// since the last seek, matching reader_base's get_buffer_called_: any
// further seek, even to the same range, must then be treated as a change.
func (s *readerState) markGetBufferCalled() {
	s.mu.Lock()
	s.getBufferCalled = true
	s.mu.Unlock()
}

// applySeek re-arms delivery of size bytes starting at offset, matching
// reader_base::seek's final state assignment: size_ = size, remaining_ =
// size_, get_buffer_called_ = false. Callers resolve an omitted (NoSize)
// size via checkSeek before calling this.
func (s *readerState) applySeek(offset int64, size uint64) {
	s.mu.Lock()
	s.startOffset = offset
	s.size = size
	s.remaining = size
	s.getBufferCalled = false
	s.mu.Unlock()
}

func (s *readerState) startOffsetValue() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startOffset
}

// remainingCount returns how many bytes are still owed for the current seek
// range, or NoSize if the range is unbounded.
func (s *readerState) remainingCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// consume records n bytes delivered against the current bound. A no-op on
// an unbounded range.
func (s *readerState) consume(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.remaining != NoSize {
		if uint64(n) >= s.remaining {
			s.remaining = 0
		} else {
			s.remaining -= uint64(n)
		}
	}
	s.mu.Unlock()
}

func (s *readerState) setFailed(err error) {
	s.mu.Lock()
	if !s.failed {
		s.failed = true
		s.lastErr = err
	}
	s.mu.Unlock()
	s.RemoveWaiters()
}

func (s *readerState) clearFailed() {
	s.mu.Lock()
	s.failed = false
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *readerState) isFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *readerState) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *readerState) markClosed() (already bool) {
	s.mu.Lock()
	already = s.closed
	s.closed = true
	s.mu.Unlock()
	return already
}

func (s *readerState) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ReaderFactory produces fresh, independent Readers over the same logical
// source, grounded on reader_factory. Implementations must support being
// called more than once: each call opens a new underlying resource.
type ReaderFactory interface {
	// Open opens a new Reader over the given pool. offset and size bound the
	// range the reader delivers, matching reader_factory::open; pass 0 and
	// NoSize for the whole source. maxBuffers caps how many buffers the
	// reader may have leased at once; 0 defers to the factory's own default.
	Open(logger Logger, pool *BufferPool, offset int64, size uint64, maxBuffers int) (Reader, error)
	// Name is the name the produced readers will report.
	Name() string
	// Size is the factory's belief about the size of the data to be read,
	// or NoSize if unknown ahead of opening.
	Size() uint64
	// Seekable reports whether readers this factory opens support seeking
	// to a nonzero offset, matching reader_factory::seekable.
	Seekable() bool
	// Mtime is the factory's belief about the source's last modification
	// time, or ok == false if indeterminate.
	Mtime() (unixNano int64, ok bool)
	// MinBufferUsage is how many buffers a reader from this factory needs
	// at minimum to make progress; size a BufferPool shared across readers
	// accordingly, matching reader_factory::min_buffer_usage.
	MinBufferUsage() int
	// MultipleBufferUsage reports whether opening with more than
	// MinBufferUsage buffers benefits this reader (e.g. read-ahead),
	// matching reader_factory::multiple_buffer_usage.
	MultipleBufferUsage() bool
	// PreferredBufferCount is the maxBuffers value Open should be called
	// with absent a caller override, matching
	// reader_factory::preferred_buffer_count.
	PreferredBufferCount() int
	// Clone returns an independent copy of this factory, matching
	// reader_factory::clone's value semantics.
	Clone() ReaderFactory
}

// ReaderFactoryHolder owns a ReaderFactory and clones-by-copy, grounded on
// reader_factory_holder.
type ReaderFactoryHolder struct {
	factory ReaderFactory
}

// NewReaderFactoryHolder wraps f. A nil f produces an invalid holder.
func NewReaderFactoryHolder(f ReaderFactory) ReaderFactoryHolder {
	return ReaderFactoryHolder{factory: f}
}

// Valid reports whether the holder wraps a factory.
func (h ReaderFactoryHolder) Valid() bool { return h.factory != nil }

// Open opens a new Reader via the held factory.
func (h ReaderFactoryHolder) Open(logger Logger, pool *BufferPool, offset int64, size uint64, maxBuffers int) (Reader, error) {
	if h.factory == nil {
		return nil, fmt.Errorf("aio: %w: no reader factory held", ErrConstructionFailed)
	}
	return h.factory.Open(logger, pool, offset, size, maxBuffers)
}

// Clone returns a holder wrapping an independent copy of the same factory.
func (h ReaderFactoryHolder) Clone() ReaderFactoryHolder {
	if h.factory == nil {
		return ReaderFactoryHolder{}
	}
	return ReaderFactoryHolder{factory: h.factory.Clone()}
}

// Name and Size forward to the held factory, or report zero values when
// the holder is empty.
func (h ReaderFactoryHolder) Name() string {
	if h.factory == nil {
		return ""
	}
	return h.factory.Name()
}

func (h ReaderFactoryHolder) Size() uint64 {
	if h.factory == nil {
		return NoSize
	}
	return h.factory.Size()
}

// Seekable, Mtime, MinBufferUsage, MultipleBufferUsage and
// PreferredBufferCount forward to the held factory, or report the
// reader_factory base class's own defaults when the holder is empty.
func (h ReaderFactoryHolder) Seekable() bool {
	return h.factory != nil && h.factory.Seekable()
}

func (h ReaderFactoryHolder) Mtime() (int64, bool) {
	if h.factory == nil {
		return 0, false
	}
	return h.factory.Mtime()
}

func (h ReaderFactoryHolder) MinBufferUsage() int {
	if h.factory == nil {
		return 1
	}
	return h.factory.MinBufferUsage()
}

func (h ReaderFactoryHolder) MultipleBufferUsage() bool {
	return h.factory != nil && h.factory.MultipleBufferUsage()
}

func (h ReaderFactoryHolder) PreferredBufferCount() int {
	if h.factory == nil {
		return 1
	}
	return h.factory.PreferredBufferCount()
}
