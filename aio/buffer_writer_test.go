package aio

import "testing"

func TestBufferWriterAccumulatesAndFinalizes(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, PoolConfig{BufferCount: 2, BufferSize: 8})
	defer pool.Close()

	w := NewBufferWriter("b", 0)
	defer w.Close()

	for _, chunk := range []string{"ab", "cd"} {
		lease := pool.Get(nil)
		lease.Buffer().Append([]byte(chunk))
		if res := w.AddBuffer(lease, nil); res != ResultOk {
			t.Fatalf("AddBuffer: got %v", res)
		}
	}

	if res := w.Finalize(nil); res != ResultOk {
		t.Fatalf("Finalize: got %v", res)
	}
	if got := string(w.Bytes()); got != "abcd" {
		t.Fatalf("got %q, want %q", got, "abcd")
	}
}

func TestBufferWriterRejectsOverLimit(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, PoolConfig{BufferCount: 1, BufferSize: 8})
	defer pool.Close()

	w := NewBufferWriter("b", 3)
	defer w.Close()

	lease := pool.Get(nil)
	lease.Buffer().Append([]byte("abcd"))
	if res := w.AddBuffer(lease, nil); res != ResultError {
		t.Fatalf("expected ResultError over limit, got %v", res)
	}

	lease2 := pool.Get(nil)
	defer lease2.Release()
	lease2.Buffer().Append([]byte("x"))
	if res := w.AddBuffer(lease2, nil); res != ResultError {
		t.Fatalf("expected writer to stay failed, got %v", res)
	}
}

func TestBufferWriterPreallocateRejectsOverLimit(t *testing.T) {
	w := NewBufferWriter("b", 4)
	defer w.Close()

	if err := w.Preallocate(8); err == nil {
		t.Fatal("expected Preallocate(8) to fail against a 4-byte size limit")
	}
	if err := w.Preallocate(4); err != nil {
		t.Fatalf("Preallocate(4): %v", err)
	}
}

func TestBufferWriterRejectsAfterFinalize(t *testing.T) {
	pool := NewBufferPool(NopLogger{}, DefaultPoolConfig(1))
	defer pool.Close()

	w := NewBufferWriter("b", 0)
	defer w.Close()

	if res := w.Finalize(nil); res != ResultOk {
		t.Fatalf("Finalize: got %v", res)
	}

	lease := pool.Get(nil)
	defer lease.Release()
	if res := w.AddBuffer(lease, nil); res != ResultError {
		t.Fatalf("expected ResultError after finalize, got %v", res)
	}
}
