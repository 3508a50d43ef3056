// File: aio/integration_test.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// End-to-end coverage over real files through osfile, exercising
// FileReaderFactory/FileWriterFactory paths that the in-package fakeFile
// tests never touch: a plain copy, a bounded seek+rewind, backpressure
// against a size-limited sink, fsync-and-mtime finalize, sharing one pool
// buffer between two readers, and the empty-file-on-close cleanup.
package aio_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hioload/aio/aio"
	"github.com/hioload/aio/osfile"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func waitFor(t *testing.T, poll func() aio.Result) aio.Result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		res := poll()
		if res != aio.ResultWait {
			return res
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for result")
		case <-time.After(time.Millisecond):
		}
	}
}

// TestFileCopyEndToEnd copies a real file through FileReaderFactory and
// FileWriterFactory end to end (Scenario S1).
func TestFileCopyEndToEnd(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("the quick brown fox "), 500)
	src := writeTempFile(t, dir, "src.bin", payload)
	dst := filepath.Join(dir, "dst.bin")

	pool := aio.NewBufferPool(aio.NopLogger{}, aio.PoolConfig{BufferCount: 3, BufferSize: 256})
	defer pool.Close()

	opener := osfile.Opener{}
	readerFactory := aio.NewFileReaderFactory(opener, src, 3)
	writerFactory := aio.NewFileWriterFactory(opener, dst, aio.FileOpenFlags{Write: true}, aio.FileWriterFlags{}, -1, 3)

	reader, err := readerFactory.Open(aio.NopLogger{}, pool, 0, aio.NoSize, 0)
	if err != nil {
		t.Fatalf("reader Open: %v", err)
	}
	defer reader.Close()
	writer, err := writerFactory.Open(aio.NopLogger{})
	if err != nil {
		t.Fatalf("writer Open: %v", err)
	}
	defer writer.Close()

	for {
		lease, res := getBufferBlocking(t, reader)
		if res == aio.ResultError {
			t.Fatalf("reader failed")
		}
		if lease == nil {
			break
		}
		wres := waitFor(t, func() aio.Result { return writer.AddBuffer(lease, nil) })
		if wres == aio.ResultError {
			t.Fatalf("writer failed")
		}
	}

	fres := waitFor(t, func() aio.Result { return writer.Finalize(nil) })
	if fres == aio.ResultError {
		t.Fatalf("finalize failed")
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("copied content mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

// TestFileReaderBoundedRangeAndRewind opens a reader bounded to a subrange
// of a file (offset 100, size 200 within a 1000-byte source) and checks it
// delivers exactly that many bytes, then that Rewind replays the same
// subrange rather than jumping back to absolute offset 0 (Scenario S3).
func TestFileReaderBoundedRangeAndRewind(t *testing.T) {
	dir := t.TempDir()
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 256)
	}
	src := writeTempFile(t, dir, "bounded.bin", payload)

	pool := aio.NewBufferPool(aio.NopLogger{}, aio.PoolConfig{BufferCount: 2, BufferSize: 64})
	defer pool.Close()

	opener := osfile.Opener{}
	readerFactory := aio.NewFileReaderFactory(opener, src, 2)

	reader, err := readerFactory.Open(aio.NopLogger{}, pool, 100, 200, 0)
	if err != nil {
		t.Fatalf("reader Open: %v", err)
	}
	defer reader.Close()

	first := drainReader(t, reader)
	if len(first) != 200 {
		t.Fatalf("bounded read: got %d bytes, want 200", len(first))
	}
	if !bytes.Equal(first, payload[100:300]) {
		t.Fatalf("bounded read content mismatch")
	}

	if !reader.Rewind() {
		t.Fatal("Rewind failed")
	}
	second := drainReader(t, reader)
	if !bytes.Equal(second, payload[100:300]) {
		t.Fatalf("rewind did not replay the same 100..300 range, got %d bytes", len(second))
	}
}

// getBufferBlocking retries GetBuffer across ResultWait until it gets a
// terminal result, returning the lease (nil at EOF) alongside it.
func getBufferBlocking(t *testing.T, r aio.Reader) (*aio.BufferLease, aio.Result) {
	t.Helper()
	var lease *aio.BufferLease
	res := waitFor(t, func() aio.Result {
		l, rr := r.GetBuffer(nil)
		lease = l
		return rr
	})
	return lease, res
}

func drainReader(t *testing.T, r aio.Reader) []byte {
	t.Helper()
	var out []byte
	for {
		lease, res := getBufferBlocking(t, r)
		if res == aio.ResultError {
			t.Fatalf("reader error while draining")
		}
		if lease == nil {
			return out
		}
		out = append(out, lease.Buffer().Bytes()...)
		lease.Release()
	}
}

// TestBackpressureWithSizeLimitedWriter drives a real multi-megabyte source
// through a tiny buffer pool into a BufferWriter capped well below the
// source size, checking that the pipeline observes backpressure (ResultWait)
// along the way and that the writer rejects a buffer with ResultError once
// its cap would be exceeded, never holding more than the cap (Scenario S2).
func TestBackpressureWithSizeLimitedWriter(t *testing.T) {
	dir := t.TempDir()
	const totalSize = 2 << 20 // 2 MiB: large relative to the 1-buffer pool below.
	payload := bytes.Repeat([]byte{0xAB}, totalSize)
	src := writeTempFile(t, dir, "big.bin", payload)

	pool := aio.NewBufferPool(aio.NopLogger{}, aio.PoolConfig{BufferCount: 1, BufferSize: 4096})
	defer pool.Close()

	opener := osfile.Opener{}
	readerFactory := aio.NewFileReaderFactory(opener, src, 1)
	reader, err := readerFactory.Open(aio.NopLogger{}, pool, 0, aio.NoSize, 0)
	if err != nil {
		t.Fatalf("reader Open: %v", err)
	}
	defer reader.Close()

	const writerCap = 64 * 1024
	writer := aio.NewBufferWriter("sink", writerCap)
	defer writer.Close()

	sawWait := false
	var failed bool
	for {
		l, res := reader.GetBuffer(nil)
		if res == aio.ResultWait {
			sawWait = true
			time.Sleep(time.Millisecond)
			continue
		}
		if res == aio.ResultError {
			t.Fatalf("reader failed")
		}
		if l == nil {
			break
		}
		wres := writer.AddBuffer(l, nil)
		if wres == aio.ResultError {
			failed = true
			break
		}
	}

	if !sawWait {
		t.Fatal("expected at least one ResultWait from the 1-buffer pool under backpressure")
	}
	if !failed {
		t.Fatalf("expected writer to hit its size cap before the 2 MiB source was exhausted")
	}
	if len(writer.Bytes()) > writerCap {
		t.Fatalf("writer exceeded its cap: got %d bytes, want <= %d", len(writer.Bytes()), writerCap)
	}
}

// TestFsyncFinalizeAndModificationTime exercises the Fsync flag through
// finalize and the SetModificationTime hook file_writer exposes (Scenario
// S4).
func TestFsyncFinalizeAndModificationTime(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "synced.bin")

	opener := osfile.Opener{}
	writerFactory := aio.NewFileWriterFactory(opener, dst, aio.FileOpenFlags{Write: true}, aio.FileWriterFlags{Fsync: true}, -1, 2)
	writer, err := writerFactory.Open(aio.NopLogger{})
	if err != nil {
		t.Fatalf("writer Open: %v", err)
	}
	defer writer.Close()
	fw := writer.(*aio.FileWriter)

	if err := fw.SetModificationTime(time.Now().UnixNano()); err == nil {
		t.Fatal("expected SetModificationTime to fail before the writer has finalized")
	}

	pool := aio.NewBufferPool(aio.NopLogger{}, aio.DefaultPoolConfig(1))
	defer pool.Close()
	lease := pool.Get(nil)
	lease.Buffer().Append([]byte("synced payload"))
	if res := waitFor(t, func() aio.Result { return writer.AddBuffer(lease, nil) }); res == aio.ResultError {
		t.Fatalf("AddBuffer failed")
	}
	if res := waitFor(t, func() aio.Result { return writer.Finalize(nil) }); res == aio.ResultError {
		t.Fatalf("Finalize failed")
	}

	want := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := fw.SetModificationTime(want.UnixNano()); err != nil {
		t.Fatalf("SetModificationTime: %v", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !st.ModTime().Equal(want) {
		t.Fatalf("mtime: got %v, want %v", st.ModTime(), want)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "synced payload" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

// TestEmptyFileDeletedOnClose checks that a FileWriter which is closed
// before writing or finalizing anything removes the empty file it created,
// matching file_writer::do_close (Scenario S8).
func TestEmptyFileDeletedOnClose(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "never_written.bin")

	opener := osfile.Opener{}
	writerFactory := aio.NewFileWriterFactory(opener, dst, aio.FileOpenFlags{Write: true}, aio.FileWriterFlags{}, -1, 2)
	writer, err := writerFactory.Open(aio.NopLogger{})
	if err != nil {
		t.Fatalf("writer Open: %v", err)
	}

	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("expected file to exist before close: %v", err)
	}

	writer.Close()

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed on close, stat err=%v", err)
	}
}

// TestTwoReadersShareOneBufferPool checks that a second reader blocks with
// ResultWait until the first reader's lease is released back to a
// single-buffer pool (Scenario S5).
func TestTwoReadersShareOneBufferPool(t *testing.T) {
	dir := t.TempDir()
	srcA := writeTempFile(t, dir, "a.bin", []byte("aaaa"))
	srcB := writeTempFile(t, dir, "b.bin", []byte("bbbb"))

	pool := aio.NewBufferPool(aio.NopLogger{}, aio.PoolConfig{BufferCount: 1, BufferSize: 16})
	defer pool.Close()

	opener := osfile.Opener{}
	factoryA := aio.NewFileReaderFactory(opener, srcA, 1)
	factoryB := aio.NewFileReaderFactory(opener, srcB, 1)

	readerA, err := factoryA.Open(aio.NopLogger{}, pool, 0, aio.NoSize, 0)
	if err != nil {
		t.Fatalf("readerA Open: %v", err)
	}
	defer readerA.Close()
	readerB, err := factoryB.Open(aio.NopLogger{}, pool, 0, aio.NoSize, 0)
	if err != nil {
		t.Fatalf("readerB Open: %v", err)
	}
	defer readerB.Close()

	leaseA := drainFirstLease(t, readerA)
	if leaseA == nil {
		t.Fatal("expected readerA to get the pool's only buffer")
	}

	deadline := time.After(200 * time.Millisecond)
	sawWait := false
loop:
	for {
		select {
		case <-deadline:
			break loop
		default:
		}
		_, res := readerB.GetBuffer(nil)
		if res == aio.ResultWait {
			sawWait = true
			break loop
		}
	}
	if !sawWait {
		t.Fatal("expected readerB to observe ResultWait while readerA holds the only buffer")
	}

	leaseA.Release()

	leaseB := drainFirstLease(t, readerB)
	if leaseB == nil {
		t.Fatal("expected readerB to get the buffer once readerA released it")
	}
	leaseB.Release()
}

func drainFirstLease(t *testing.T, r aio.Reader) *aio.BufferLease {
	t.Helper()
	lease, _ := getBufferBlocking(t, r)
	return lease
}
