// File: cmd/aiocp/main.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// aiocp copies one file to another through the aio pipeline, driven by an
// eventloop.Loop instead of a blocking call-and-wait. Grounded on
// demos/aio.cpp's worker event_handler: get a buffer from the reader, feed
// it to the writer, repeat, finalize on EOF, hashing every byte copied
// along the way so the demo has something to report besides a byte count.
package main

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"os"

	"github.com/hioload/aio/aio"
	"github.com/hioload/aio/control"
	"github.com/hioload/aio/eventloop"
	"github.com/hioload/aio/osfile"
)

const buffersInFlight = 8

type copyWorker struct {
	logger aio.Logger
	loop   *eventloop.Loop
	handle *eventloop.Handle

	reader aio.Reader
	writer aio.Writer

	written     uint64
	hash        hash.Hash
	success     bool
	transferred func(int64)
}

func (w *copyWorker) step() {
	for i := 0; i < 10; i++ {
		lease, res := w.reader.GetBufferForHandler(w.handle)
		if res == aio.ResultError {
			w.logger.Error("read failed")
			w.loop.Stop()
			return
		}
		if res == aio.ResultWait {
			return
		}
		if lease == nil {
			// EOF: finalize the writer before declaring success.
			switch w.writer.FinalizeForHandler(w.handle) {
			case aio.ResultWait:
				return
			case aio.ResultError:
				w.logger.Error("finalize failed")
				w.loop.Stop()
				return
			}
			w.success = true
			w.loop.Stop()
			return
		}

		buf := lease.Buffer()
		w.hash.Write(buf.Bytes())
		w.written += uint64(buf.Len())
		w.transferred(int64(buf.Len()))

		switch w.writer.AddBufferForHandler(lease, w.handle) {
		case aio.ResultWait:
			return
		case aio.ResultError:
			w.logger.Error("write failed")
			w.loop.Stop()
			return
		}
	}
	// Still more to do; re-post ourselves so the loop gives other handles
	// a turn instead of looping here forever, matching the original's
	// self-posted aio_buffer_event batching.
	w.handle.PostEvent(struct{}{})
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: aiocp <input> <output>")
		os.Exit(1)
	}
	in, out := os.Args[1], os.Args[2]

	logger := aio.NewStdLogger("aiocp")
	pool := aio.NewBufferPool(logger, aio.DefaultPoolConfig(buffersInFlight))
	if !pool.Valid() {
		logger.Error("could not init buffer pool")
		os.Exit(1)
	}
	defer pool.Close()

	metrics := control.NewMetricsRegistry()
	debugProbes := control.NewDebugProbes()
	control.RegisterPlatformProbes(debugProbes)
	control.RegisterPoolProbes(debugProbes, metrics, "aiocp", pool)
	defer control.UnregisterPoolProbes(debugProbes, "aiocp")

	opener := osfile.Opener{}
	readerFactory := aio.NewFileReaderFactory(opener, in, buffersInFlight)
	writerFactory := aio.NewFileWriterFactory(opener, out, aio.FileOpenFlags{Write: true}, aio.FileWriterFlags{Fsync: true}, -1, buffersInFlight)

	reader, err := readerFactory.Open(logger, pool, 0, aio.NoSize, 0)
	if err != nil {
		logger.Error("could not open %s: %v", in, err)
		os.Exit(1)
	}
	writer, err := writerFactory.Open(logger)
	if err != nil {
		logger.Error("could not open %s: %v", out, err)
		os.Exit(1)
	}

	loop := eventloop.NewLoop(64, 256)
	h := sha1.New()
	w := &copyWorker{logger: logger, loop: loop, reader: reader, writer: writer, hash: h, transferred: control.TransferCounter(metrics, "aiocp")}
	w.handle = loop.NewHandle(func(any) { w.step() })

	w.handle.PostEvent(struct{}{})
	loop.Run()

	reader.Close()
	writer.Close()

	if w.success {
		logger.DebugInfo("copied successfully, wrote %d bytes", w.written)
		logger.DebugInfo("sha1 of data copied is %s", hex.EncodeToString(h.Sum(nil)))
		if snap := debugProbes.DumpState()["pool.aiocp"]; snap != nil {
			logger.DebugVerbose("final pool state: %+v", snap)
		}
		logger.DebugVerbose("transfer counter: %v", metrics.GetSnapshot()["transfer.aiocp.bytes"])
		return
	}
	logger.Error("copy failed")
	os.Exit(1)
}
