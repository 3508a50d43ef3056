package aio

import "testing"

func TestBufferPoolGetRelease(t *testing.T) {
	p := NewBufferPool(NopLogger{}, DefaultPoolConfig(2))
	if !p.Valid() {
		t.Fatal("expected heap-backed pool to be valid")
	}
	defer p.Close()

	l1 := p.Get(nil)
	if l1 == nil || !l1.Valid() {
		t.Fatal("expected a lease from a fresh pool")
	}
	l2 := p.Get(nil)
	if l2 == nil || !l2.Valid() {
		t.Fatal("expected a second lease")
	}

	if l3 := p.Get(&recordingWaiter{}); l3 != nil {
		t.Fatal("expected nil lease once the pool is exhausted")
	}

	l1.Release()
	stats := p.Stats()
	if stats.FreeCount != 1 || stats.Outstanding != 1 {
		t.Fatalf("unexpected stats after one release: %+v", stats)
	}
	l2.Release()
}

func TestBufferPoolSignalsWaiterOnRelease(t *testing.T) {
	p := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer p.Close()

	l1 := p.Get(nil)
	w := &recordingWaiter{}
	if l2 := p.Get(w); l2 != nil {
		t.Fatal("expected exhausted pool to return nil")
	}

	l1.Release()
	if w.calls != 1 {
		t.Fatalf("expected waiter to be signalled exactly once, got %d", w.calls)
	}
}

func TestBufferPoolCloseWithOutstandingLeasePanics(t *testing.T) {
	p := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	_ = p.Get(nil)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic closing a pool with an outstanding lease")
		}
	}()
	p.Close()
}

func TestBufferLeaseReleaseIsIdempotent(t *testing.T) {
	p := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer p.Close()

	l := p.Get(nil)
	l.Release()
	l.Release() // must not double-free or panic
	if l.Valid() {
		t.Fatal("expected released lease to be invalid")
	}
}

type recordingWaiter struct {
	calls int
}

func (w *recordingWaiter) OnBufferAvailability(*Waitable) { w.calls++ }
