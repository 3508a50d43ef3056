// File: aio/pool.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// BufferPool owns a page-aligned backing region (heap or shared memory),
// carves it into N equally sized buffers separated by guard pages, and hands
// out leases. Grounded on fz::aio_buffer_pool in aio.hpp/aio.cpp; the
// NUMA-aware size-classed pooling of the teacher's pool/bufferpool.go and
// pool/slab_pool.go informed the free-list bookkeeping style (LIFO stack
// under a dedicated mutex, separate from the Waitable's own mutex) even
// though this pool is single-size, not size-classed — the spec's pool is a
// fixed inventory of identical buffers, not a general-purpose allocator.

package aio

import (
	"os"
	"sync"
)

const defaultBufferSize = 256 * 1024

// PoolConfig configures a BufferPool. The zero value is invalid; use
// DefaultPoolConfig as a starting point.
type PoolConfig struct {
	// BufferCount is the number of buffers the pool hands out; must be >= 1.
	BufferCount int
	// BufferSize is the capacity of each buffer in bytes. 0 selects the
	// default of 256 KiB, matching the original's aio_buffer_pool default.
	BufferSize int
	// UseSHM requests an anonymous shared-memory backing instead of a plain
	// heap allocation, enabling SharedMemoryInfo for cross-process lease
	// transfer.
	UseSHM bool
	// ApplicationGroupID is accepted but not read by any platform backing
	// in this package; on Darwin UseSHM falls back to a heap allocation
	// (see pool_unix_other.go).
	ApplicationGroupID string
}

// DefaultPoolConfig returns a config for a modest, heap-backed pool.
func DefaultPoolConfig(bufferCount int) PoolConfig {
	return PoolConfig{BufferCount: bufferCount, BufferSize: defaultBufferSize}
}

// BufferPool is itself a Waitable: readers and writers block on it the same
// way they block on each other.
type BufferPool struct {
	Waitable

	logger Logger

	mu          sync.Mutex
	memory      []byte
	free        []Buffer
	bufferCount int
	bufferSize  int
	shm         shmBacking
}

// NewBufferPool constructs a pool. Construction never fails loudly: on any
// allocation failure it logs at DebugWarning and returns a pool for which
// Valid() reports false, mirroring aio_buffer_pool's `operator bool`.
func NewBufferPool(logger Logger, cfg PoolConfig) *BufferPool {
	if logger == nil {
		logger = NopLogger{}
	}
	count := cfg.BufferCount
	if count < 1 {
		count = 1
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}

	p := &BufferPool{logger: logger, bufferCount: count, bufferSize: size}

	psz := os.Getpagesize()
	adjusted := roundUpToPage(size, psz)
	mappingLen := (adjusted+psz)*count + psz

	mem, shm, ok := platformAllocate(mappingLen, cfg.UseSHM, cfg.ApplicationGroupID, logger)
	if !ok {
		logger.DebugWarning("buffer pool: failed to allocate %d bytes", mappingLen)
		return p
	}

	p.memory = mem
	p.shm = shm
	p.free = make([]Buffer, 0, count)
	off := psz
	for i := 0; i < count; i++ {
		p.free = append(p.free, newBuffer(mem[off:off+size]))
		off += adjusted + psz
	}
	return p
}

func roundUpToPage(size, page int) int {
	if page <= 0 {
		return size
	}
	if rem := size % page; rem != 0 {
		return size + (page - rem)
	}
	return size
}

// Valid reports whether construction succeeded, equivalent to
// aio_buffer_pool::operator bool.
func (p *BufferPool) Valid() bool { return p.memory != nil }

// BufferCount returns the fixed number of buffers the pool manages.
func (p *BufferPool) BufferCount() int { return p.bufferCount }

// PoolStats is a point-in-time snapshot for diagnostics, consumed by
// control.RegisterPoolProbes.
type PoolStats struct {
	BufferCount int
	FreeCount   int
	Outstanding int
	BufferSize  int
	SharedMem   bool
}

// Stats returns a snapshot of the pool's current occupancy.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := len(p.free)
	return PoolStats{
		BufferCount: p.bufferCount,
		FreeCount:   free,
		Outstanding: p.bufferCount - free,
		BufferSize:  p.bufferSize,
		SharedMem:   p.shm.Handle != 0,
	}
}

// Get returns either a leased buffer, or registers w as a raw waiter and
// returns nil. Callers must not call Get again until w is signalled.
func (p *BufferPool) Get(w Waiter) *BufferLease {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return newBufferLease(buf, p)
	}
	p.mu.Unlock()
	p.AddWaiter(w)
	return nil
}

// GetForHandler is the event-handler-integrated counterpart to Get.
func (p *BufferPool) GetForHandler(h EventHandler) *BufferLease {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return newBufferLease(buf, p)
	}
	p.mu.Unlock()
	p.AddHandler(h)
	return nil
}

// release returns a buffer to the free list and signals one waiter. Invoked
// only from BufferLease.Release.
func (p *BufferPool) release(b Buffer) {
	b.Reset()
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
	p.SignalAvailability()
}

// Close releases the backing mapping. Destroying a pool with any buffer
// still leased out is a programmer error and panics, matching the
// original's abort() on the same invariant violation.
func (p *BufferPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.memory != nil && len(p.free) != p.bufferCount {
		panic("aio: BufferPool closed with outstanding leases")
	}
	if p.memory != nil {
		platformRelease(p.memory, p.shm)
		p.memory = nil
	}
}

// SharedMemoryInfo exposes the backing mapping for cross-process lease
// transfer. See shmBacking for the transfer protocol: send Handle and
// Length once, then per-lease send (offset-from-base, fill-size); the
// receiving process maps independently and reconstructs the pointer. The
// sending process must retain the lease until the peer acknowledges it is
// done with that buffer. The handle grants write access to the mapping and
// must never be shared with an untrusted peer.
func (p *BufferPool) SharedMemoryInfo() (handle ShmHandle, base []byte, length int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shm.Handle, p.memory, len(p.memory)
}
