// File: aio/threaded_reader.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// ThreadedReader runs a dedicated worker goroutine that keeps a bounded
// queue of filled buffers ahead of the consumer, grounded on
// fz::threaded_reader / fz::file_reader::entry() in reader.cpp. The produced
// queue uses github.com/eapache/queue, the teacher's declared-but-unused
// dependency (pool/ never imports it; no file in the 257-file tree does):
// this is the first of the two homes SPEC_FULL.md gives it, a plain ring
// buffer of interface{} that is a good fit for FIFO buffer handoff without
// writing a bespoke ring type the way pool/ring.go does for a different,
// lock-free, single-type use case.
package aio

import (
	"io"
	"sync"

	"github.com/eapache/queue"
	"github.com/hioload/aio/threadpool"
)

// readItem is one unit of worker output: either a filled buffer, an EOF
// marker, or a terminal error. At most one of lease/eof/err is meaningful
// per item, matching the three terminal states get_buffer can report.
type readItem struct {
	lease *BufferLease
	eof   bool
	err   error
}

// Opener produces a freshly positioned File, used by ThreadedReader to
// (re)open its source on construction and on Rewind/Seek, matching
// file_reader_factory::open and file_reader::do_seek's reopen-on-seek path.
type Opener interface {
	Open(offset int64) (File, error)
}

// ThreadedReader is a Reader backed by a worker goroutine performing
// blocking reads against a File.
type ThreadedReader struct {
	*readerState

	pool      *BufferPool
	opener    Opener
	logger    Logger
	maxQueued int

	mu         sync.Mutex
	items      *queue.Queue
	spaceAvail chan struct{}
	quit       chan struct{}
	quitOne    sync.Once
	seekReq    chan seekRequest
	task       *threadpool.Task
}

type seekRequest struct {
	offset int64
	size   uint64
	result chan bool
}

// NewThreadedReader constructs and starts a reader. offset is the initial
// read position; size is the caller's belief about the bounded range to
// deliver, or NoSize; maxSize is the source's total size, or NoSize if
// unknown (which also makes the reader unseekable).
func NewThreadedReader(name string, logger Logger, pool *BufferPool, opener Opener, offset int64, size uint64, maxSize uint64, maxQueued int) (*ThreadedReader, error) {
	if logger == nil {
		logger = NopLogger{}
	}
	if maxQueued < 1 {
		maxQueued = 4
	}
	f, err := opener.Open(offset)
	if err != nil {
		return nil, err
	}

	r := &ThreadedReader{
		readerState: newReaderState(name, offset, size, maxSize),
		pool:        pool,
		opener:      opener,
		logger:      logger,
		maxQueued:   maxQueued,
		items:       queue.New(),
		spaceAvail: make(chan struct{}, 1),
		quit:        make(chan struct{}),
		seekReq:     make(chan seekRequest),
	}
	r.task = threadpool.Spawn(func() { r.run(f) })
	return r, nil
}

func (r *ThreadedReader) Waitable() *Waitable { return &r.readerState.Waitable }

// run is the dedicated worker goroutine body, grounded on file_reader::entry.
// Every blocking wait in this loop also watches seekReq, so a Seek/Rewind
// call is serviced promptly even when the queue is full or the pool is
// exhausted, rather than only between iterations.
func (r *ThreadedReader) run(f File) {
	defer f.Close()
	for {
		select {
		case <-r.quit:
			return
		case req := <-r.seekReq:
			f = r.doSeek(f, req)
			continue
		default:
		}

		if r.queueFull() {
			select {
			case <-r.spaceAvail:
			case req := <-r.seekReq:
				f = r.doSeek(f, req)
			case <-r.quit:
				return
			}
			continue
		}

		lease, ok := r.acquireLease(&f)
		if !ok {
			return
		}
		if lease == nil {
			continue // a seek arrived while waiting on the pool; restart.
		}
		buf := lease.Buffer()

		var item readItem
		for !buf.Full() {
			remaining := r.remainingCount()
			if remaining == 0 {
				item.eof = true
				break
			}
			dst := buf.Free()
			if remaining != NoSize && uint64(len(dst)) > remaining {
				dst = dst[:remaining]
			}
			n, err := f.Read(dst)
			if n > 0 {
				buf.Add(n)
				r.consume(n)
			}
			if err == io.EOF || (err == nil && n == 0) {
				// A genuine EOF from the OS while the reader still owes
				// bytes for its current bound is premature: the source
				// shrank out from under us, matching file_reader::entry
				// treating that case as an error rather than a normal eof.
				if remaining := r.remainingCount(); remaining != NoSize && remaining != 0 {
					item.err = io.ErrUnexpectedEOF
				} else {
					item.eof = true
				}
				break
			}
			if err != nil {
				item.err = err
				break
			}
		}

		// A partially filled final buffer is queued on its own, ahead of the
		// eof/error marker, so its bytes are delivered before end-of-stream.
		if buf.Empty() {
			lease.Release()
		} else {
			r.push(readItem{lease: lease})
		}
		if item.err != nil || item.eof {
			r.push(item)
		}

		if item.err != nil {
			r.setFailed(item.err)
		}
		if item.err != nil || item.eof {
			// The source is exhausted or broken, but the reader itself
			// stays alive so a later Seek/Rewind can reopen it, matching
			// file_reader::do_seek being able to restart after eof.
			nf, ok := r.parkUntilSeekOrQuit(f)
			if !ok {
				return
			}
			f = nf
		}
	}
}

// parkUntilSeekOrQuit idles the worker after EOF or a terminal error,
// waiting only for a seek request (which reopens the source and clears any
// failure) or for Close.
func (r *ThreadedReader) parkUntilSeekOrQuit(f File) (File, bool) {
	for {
		select {
		case <-r.quit:
			return f, false
		case req := <-r.seekReq:
			nf := r.doSeek(f, req)
			if !r.isFailed() {
				return nf, true
			}
			f = nf
		}
	}
}

// acquireLease blocks until a buffer is available, a seek interrupts the
// wait (in which case it returns nil, true so run() restarts its loop with
// the reopened file already applied), or the reader is closing (false).
func (r *ThreadedReader) acquireLease(f *File) (*BufferLease, bool) {
	w := newSignalWaiter()
	for {
		if lease := r.pool.Get(w); lease != nil {
			r.pool.RemoveWaiter(w)
			return lease, true
		}
		select {
		case <-w.ch:
		case req := <-r.seekReq:
			r.pool.RemoveWaiter(w)
			*f = r.doSeek(*f, req)
			return nil, true
		case <-r.quit:
			r.pool.RemoveWaiter(w)
			return nil, false
		}
	}
}

// doSeek runs on the worker goroutine; req.size already has NoSize resolved
// against the source's total size by Seek's call to checkSeek.
func (r *ThreadedReader) doSeek(f File, req seekRequest) File {
	f.Close()
	r.drainLocked()
	nf, err := r.opener.Open(req.offset)
	if err != nil {
		req.result <- false
		r.setFailed(err)
		return nf
	}
	r.clearFailed()
	r.applySeek(req.offset, req.size)
	req.result <- true
	return nf
}

// drainLocked empties the produced-item queue, releasing any leases back to
// the pool, used before reopening the underlying source on seek/rewind.
func (r *ThreadedReader) drainLocked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.items.Length() > 0 {
		it := r.items.Remove().(readItem)
		if it.lease != nil {
			it.lease.Release()
		}
	}
}

func (r *ThreadedReader) queueFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.Length() >= r.maxQueued
}

func (r *ThreadedReader) push(item readItem) {
	r.mu.Lock()
	wasEmpty := r.items.Length() == 0
	r.items.Add(item)
	r.mu.Unlock()
	if wasEmpty || item.eof || item.err != nil {
		r.SignalAvailability()
	}
}

func (r *ThreadedReader) pop() (readItem, bool) {
	r.mu.Lock()
	if r.items.Length() == 0 {
		r.mu.Unlock()
		return readItem{}, false
	}
	v := r.items.Remove()
	r.mu.Unlock()
	select {
	case r.spaceAvail <- struct{}{}:
	default:
	}
	return v.(readItem), true
}

// GetBuffer implements Reader.
func (r *ThreadedReader) GetBuffer(w Waiter) (*BufferLease, Result) {
	return r.getBuffer(w, nil)
}

// GetBufferForHandler implements Reader.
func (r *ThreadedReader) GetBufferForHandler(h EventHandler) (*BufferLease, Result) {
	return r.getBuffer(nil, h)
}

func (r *ThreadedReader) getBuffer(w Waiter, h EventHandler) (*BufferLease, Result) {
	item, ok := r.pop()
	if !ok {
		if r.isFailed() {
			return nil, ResultError
		}
		if w != nil {
			r.AddWaiter(w)
		} else if h != nil {
			r.AddHandler(h)
		}
		return nil, ResultWait
	}
	if item.err != nil {
		if item.lease != nil {
			item.lease.Release()
		}
		return nil, ResultError
	}
	if item.eof {
		if item.lease != nil {
			item.lease.Release()
		}
		return nil, ResultOk
	}
	r.markGetBufferCalled()
	return item.lease, ResultOk
}

// Seek implements Reader. Validation and the no-change short circuit happen
// here, synchronously, before anything is handed to the worker goroutine —
// matching reader_base::seek doing its sanity/no-op checks before calling
// do_seek.
func (r *ThreadedReader) Seek(offset int64, size uint64) bool {
	if r.isClosed() || r.isFailed() {
		return false
	}
	resolved, changed, ok := r.checkSeek(offset, size)
	if !ok {
		return false
	}
	if !changed {
		return true
	}
	res := make(chan bool, 1)
	select {
	case r.seekReq <- seekRequest{offset: offset, size: resolved, result: res}:
	case <-r.quit:
		return false
	}
	return <-res
}

// Rewind implements Reader, re-delivering the same bounded range from its
// own start offset rather than jumping to absolute byte 0, matching
// reader_base::rewind's return seek(start_offset_, size_).
func (r *ThreadedReader) Rewind() bool {
	return r.Seek(r.startOffsetValue(), r.Size())
}

// Close implements Reader.
func (r *ThreadedReader) Close() {
	if r.markClosed() {
		return
	}
	r.quitOne.Do(func() { close(r.quit) })
	r.task.Join()
	r.RemoveWaiters()
	r.mu.Lock()
	for r.items.Length() > 0 {
		it := r.items.Remove().(readItem)
		if it.lease != nil {
			it.lease.Release()
		}
	}
	r.mu.Unlock()
}
