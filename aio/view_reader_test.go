package aio

import "testing"

func TestViewReaderServesOnceThenEOF(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer pool.Close()

	r := NewViewReader("v", pool, []byte("payload"))
	defer r.Close()

	lease, res := r.GetBuffer(nil)
	if res != ResultOk || lease == nil {
		t.Fatalf("expected first GetBuffer to return data, got res=%v lease=%v", res, lease)
	}
	if string(lease.Buffer().Bytes()) != "payload" {
		t.Fatalf("unexpected payload: %q", lease.Buffer().Bytes())
	}
	lease.Release()

	lease2, res2 := r.GetBuffer(nil)
	if res2 != ResultOk || lease2 != nil {
		t.Fatalf("expected EOF (ok, nil) on second call, got res=%v lease=%v", res2, lease2)
	}
}

func TestViewReaderRewindServesAgain(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer pool.Close()

	r := NewViewReader("v", pool, []byte("x"))
	defer r.Close()

	lease, _ := r.GetBuffer(nil)
	lease.Release()

	if !r.Rewind() {
		t.Fatal("expected rewind to succeed")
	}
	lease2, res := r.GetBuffer(nil)
	if res != ResultOk || lease2 == nil {
		t.Fatal("expected data again after rewind")
	}
	lease2.Release()
}

func TestStringReaderServesPayload(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer pool.Close()

	r := NewStringReader("s", pool, "hello")
	defer r.Close()

	lease, res := r.GetBuffer(nil)
	if res != ResultOk || string(lease.Buffer().Bytes()) != "hello" {
		t.Fatal("expected string reader to serve its payload")
	}
	lease.Release()
}
