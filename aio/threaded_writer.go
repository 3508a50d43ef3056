// File: aio/threaded_writer.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// ThreadedWriter runs a dedicated worker goroutine draining a bounded queue
// of buffers into a File, grounded on fz::threaded_writer and
// fz::file_writer::entry()/continue_finalize() in writer.cpp. Reuses
// github.com/eapache/queue for the pending-buffer FIFO, the same home
// SPEC_FULL.md gives the reader side of this dependency.
package aio

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/hioload/aio/threadpool"
)

type finalizeRequest struct {
	result chan error
}

// ThreadedWriter is a Writer backed by a worker goroutine performing
// blocking writes against a File.
type ThreadedWriter struct {
	*writerState

	file   File
	logger Logger

	maxQueued int
	progress  func(written int64)
	fsync     bool

	mu          sync.Mutex
	items       *queue.Queue
	spaceAvail  chan struct{}
	dataAvail   chan struct{}
	quit        chan struct{}
	quitOnce    sync.Once
	finalizeReq chan finalizeRequest
	task        *threadpool.Task
}

// NewThreadedWriter constructs and starts a writer against an already-open
// File. progress, if non-nil, is invoked after every successful Write call
// with the number of bytes just written, matching file_writer's progress
// callback. fsync controls whether doFinalize calls File.Fsync before
// marking the writer finalized, matching file_writer_flags.fsync_.
func NewThreadedWriter(name string, logger Logger, f File, maxQueued int, fsync bool, progress func(written int64)) *ThreadedWriter {
	if logger == nil {
		logger = NopLogger{}
	}
	if maxQueued < 1 {
		maxQueued = 4
	}
	w := &ThreadedWriter{
		writerState: newWriterState(name),
		file:        f,
		logger:      logger,
		maxQueued:   maxQueued,
		progress:    progress,
		fsync:       fsync,
		items:       queue.New(),
		spaceAvail:  make(chan struct{}, 1),
		dataAvail:   make(chan struct{}, 1),
		quit:        make(chan struct{}),
		finalizeReq: make(chan finalizeRequest, 1),
	}
	w.task = threadpool.Spawn(w.run)
	return w
}

func (w *ThreadedWriter) Waitable() *Waitable { return &w.writerState.Waitable }

// Preallocate implements Writer as a no-op, matching writer_base's own
// default; FileWriter overrides this with a real preallocation.
func (w *ThreadedWriter) Preallocate(size int64) error { return nil }

func (w *ThreadedWriter) run() {
	for {
		lease, pending, ok := w.pop()
		if !ok {
			select {
			case <-w.quit:
				return
			case <-w.dataAvail:
				continue
			case freq := <-w.finalizeReq:
				w.doFinalize(freq)
				continue
			}
		}

		buf := lease.Buffer()
		var failErr error
		for buf.Len() > 0 {
			n, err := w.file.Write(buf.Bytes())
			if n > 0 {
				buf.Consume(n)
				if w.progress != nil {
					w.progress(int64(n))
				}
			}
			if err != nil {
				failErr = err
				break
			}
		}
		lease.Release()
		w.signalSpace(pending)

		if failErr != nil {
			w.setFailed(failErr)
			return
		}
	}
}

// pop removes the oldest queued lease, if any, and reports how many items
// remain queued after the removal (used to decide whether to signal
// producer-side backpressure relief).
func (w *ThreadedWriter) pop() (*BufferLease, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.items.Length() == 0 {
		return nil, 0, false
	}
	v := w.items.Remove().(*BufferLease)
	return v, w.items.Length(), true
}

func (w *ThreadedWriter) signalSpace(remaining int) {
	select {
	case w.spaceAvail <- struct{}{}:
	default:
	}
	_ = remaining
	w.SignalAvailability()
}

func (w *ThreadedWriter) queueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.items.Length()
}

// AddBuffer implements Writer.
func (w *ThreadedWriter) AddBuffer(lease *BufferLease, waiter Waiter) Result {
	return w.addBuffer(lease, waiter, nil)
}

// AddBufferForHandler implements Writer.
func (w *ThreadedWriter) AddBufferForHandler(lease *BufferLease, h EventHandler) Result {
	return w.addBuffer(lease, nil, h)
}

func (w *ThreadedWriter) addBuffer(lease *BufferLease, waiter Waiter, h EventHandler) Result {
	if w.isFailed() {
		return ResultError
	}
	if lease == nil || !lease.Valid() || lease.Buffer().Empty() {
		lease.Release()
		return ResultOk
	}
	if w.isFinalizing() {
		// A buffer arriving after finalize has started is a caller
		// ordering error, not an I/O failure; the writer itself is not
		// marked failed.
		return ResultError
	}
	if w.queueLen() >= w.maxQueued {
		if waiter != nil {
			w.AddWaiter(waiter)
		} else if h != nil {
			w.AddHandler(h)
		}
		return ResultWait
	}
	w.mu.Lock()
	w.items.Add(lease)
	w.mu.Unlock()
	select {
	case w.dataAvail <- struct{}{}:
	default:
	}
	return ResultOk
}

// Finalize implements Writer.
func (w *ThreadedWriter) Finalize(waiter Waiter) Result {
	return w.finalize(waiter, nil)
}

// FinalizeForHandler implements Writer.
func (w *ThreadedWriter) FinalizeForHandler(h EventHandler) Result {
	return w.finalize(nil, h)
}

func (w *ThreadedWriter) finalize(waiter Waiter, h EventHandler) Result {
	if w.isFailed() {
		return ResultError
	}
	if w.isFinalized() {
		return ResultOk
	}
	already := w.beginFinalize()
	if !already {
		res := make(chan error, 1)
		select {
		case w.finalizeReq <- finalizeRequest{result: res}:
		case <-w.quit:
			return ResultError
		}
	}
	if waiter != nil {
		w.AddWaiter(waiter)
	} else if h != nil {
		w.AddHandler(h)
	}
	return ResultWait
}

// doFinalize runs on the worker goroutine once the queue is fully drained:
// fsync, then mark finalized and wake whoever is waiting. Grounded on
// file_writer::continue_finalize's flush-then-fsync two-phase sequence.
func (w *ThreadedWriter) doFinalize(req finalizeRequest) {
	for w.queueLen() > 0 {
		lease, _, ok := w.pop()
		if !ok {
			break
		}
		buf := lease.Buffer()
		for buf.Len() > 0 {
			n, err := w.file.Write(buf.Bytes())
			if n > 0 {
				buf.Consume(n)
				if w.progress != nil {
					w.progress(int64(n))
				}
			}
			if err != nil {
				lease.Release()
				req.result <- err
				w.setFailed(err)
				return
			}
		}
		lease.Release()
	}
	var err error
	if w.fsync {
		err = w.file.Fsync()
	}
	req.result <- err
	if err != nil {
		w.setFailed(err)
		return
	}
	w.setFinalized()
	w.SignalAvailability()
}

// Close implements Writer.
func (w *ThreadedWriter) Close() {
	if w.markClosed() {
		return
	}
	w.quitOnce.Do(func() { close(w.quit) })
	w.task.Join()
	w.RemoveWaiters()
	w.mu.Lock()
	for w.items.Length() > 0 {
		it := w.items.Remove().(*BufferLease)
		it.Release()
	}
	w.mu.Unlock()
	w.file.Close()
}
