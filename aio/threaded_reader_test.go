package aio

import (
	"strings"
	"testing"
	"time"
)

func TestThreadedReaderReadsWholeFile(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, PoolConfig{BufferCount: 2, BufferSize: 8})
	defer pool.Close()

	payload := "hello, threaded reader world"
	r, err := NewThreadedReader("t", NopLogger{}, pool, fakeOpener{data: []byte(payload)}, 0, uint64(len(payload)), uint64(len(payload)), 2)
	if err != nil {
		t.Fatalf("NewThreadedReader: %v", err)
	}
	defer r.Close()

	var got strings.Builder
	for {
		lease, res := waitForResult(t, r)
		if res == ResultError {
			t.Fatal("unexpected read error")
		}
		if lease == nil {
			break
		}
		got.Write(lease.Buffer().Bytes())
		lease.Release()
	}

	if got.String() != payload {
		t.Fatalf("got %q, want %q", got.String(), payload)
	}
}

func TestThreadedReaderRewind(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, PoolConfig{BufferCount: 2, BufferSize: 4})
	defer pool.Close()

	payload := "abcdefgh"
	r, err := NewThreadedReader("t", NopLogger{}, pool, fakeOpener{data: []byte(payload)}, 0, uint64(len(payload)), uint64(len(payload)), 2)
	if err != nil {
		t.Fatalf("NewThreadedReader: %v", err)
	}
	defer r.Close()

	drainAll(t, r)
	if !r.Rewind() {
		t.Fatal("expected rewind to succeed")
	}
	if drainAll(t, r) != payload {
		t.Fatalf("expected full payload again after rewind")
	}
}

func TestThreadedReaderSeekPastEndFails(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, PoolConfig{BufferCount: 2, BufferSize: 4})
	defer pool.Close()

	payload := "abcdefgh" // 8 bytes
	r, err := NewThreadedReader("t", NopLogger{}, pool, fakeOpener{data: []byte(payload)}, 0, uint64(len(payload)), uint64(len(payload)), 2)
	if err != nil {
		t.Fatalf("NewThreadedReader: %v", err)
	}
	defer r.Close()

	if r.Seek(6, 4) {
		t.Fatal("expected seek past end (6+4 > 8) to fail")
	}
	if !r.Seek(2, 4) {
		t.Fatal("expected a still-in-range seek to succeed after an earlier rejected seek")
	}
	if drainAll(t, r) != payload[2:6] {
		t.Fatalf("expected payload[2:6] after seek(2, 4)")
	}
}

func waitForResult(t *testing.T, r Reader) (*BufferLease, Result) {
	t.Helper()
	w := &blockingTestWaiter{ch: make(chan struct{}, 1)}
	for {
		lease, res := r.GetBuffer(w)
		if res != ResultWait {
			return lease, res
		}
		select {
		case <-w.ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for reader")
		}
	}
}

func drainAll(t *testing.T, r Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		lease, res := waitForResult(t, r)
		if res == ResultError {
			t.Fatal("unexpected error draining reader")
		}
		if lease == nil {
			return sb.String()
		}
		sb.Write(lease.Buffer().Bytes())
		lease.Release()
	}
}

type blockingTestWaiter struct {
	ch chan struct{}
}

func (w *blockingTestWaiter) OnBufferAvailability(*Waitable) {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}
