// File: aio/pool_linux.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Unix backing allocation for BufferPool, grounded on aio_buffer_pool's
// POSIX branch in aio.cpp (shm_open/memfd_create + mmap, with the
// fstat-before-ftruncate quirk the original notes for sandboxed macOS) and
// on the teacher's pool/bufferpool_linux.go use of golang.org/x/sys/unix for
// mmap/munmap instead of the raw syscall package.

//go:build linux

package aio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ShmHandle is a cross-process-transferable reference to a BufferPool's
// backing mapping: a file descriptor on Unix, cast to uintptr for a
// platform-neutral field type in BufferPool.SharedMemoryInfo.
type ShmHandle = uintptr

type shmBacking struct {
	Handle ShmHandle
	fd     int
	length int
}

const invalidFd = -1

func heapBacking(length int) ([]byte, shmBacking, bool) {
	return make([]byte, length), shmBacking{fd: invalidFd}, true
}

func platformAllocate(length int, useSHM bool, groupID string, logger Logger) ([]byte, shmBacking, bool) {
	if !useSHM {
		return heapBacking(length)
	}

	fd, err := memfdCreate("aio-bufferpool")
	if err != nil {
		logger.DebugWarning("buffer pool: memfd_create failed: %v, falling back to heap", err)
		return heapBacking(length)
	}

	// On a sandboxed macOS process a second ftruncate on an already-sized
	// shm segment returns EINVAL; the original guards this with an fstat
	// check before truncating. memfd-backed descriptors are always
	// freshly sized here, but the guard is retained for the codepath is
	// shared with any future named-shm variant.
	if sz, sizeErr := currentSize(fd); sizeErr != nil || sz != int64(length) {
		if err := unix.Ftruncate(fd, int64(length)); err != nil {
			unix.Close(fd)
			logger.DebugWarning("buffer pool: ftruncate(%d) failed: %v, falling back to heap", length, err)
			return heapBacking(length)
		}
	}

	// Seal the mapping against shrinking once sized: a peer holding the
	// shared fd cannot ftruncate it smaller out from under our leases. Best
	// effort only — older kernels without memfd sealing just don't get it.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK); err != nil {
		logger.DebugVerbose("buffer pool: F_ADD_SEALS(F_SEAL_SHRINK) failed: %v", err)
	}

	mem, err := unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		logger.DebugWarning("buffer pool: mmap failed: %v, falling back to heap", err)
		return heapBacking(length)
	}

	return mem, shmBacking{Handle: ShmHandle(fd), fd: fd, length: length}, true
}

func platformRelease(mem []byte, shm shmBacking) {
	if shm.fd == invalidFd {
		return
	}
	_ = unix.Munmap(mem)
	_ = unix.Close(shm.fd)
}

func currentSize(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

func memfdCreate(name string) (int, error) {
	fd, err := unix.MemfdCreate(name, 0)
	if err != nil {
		return invalidFd, fmt.Errorf("memfd_create: %w", err)
	}
	return fd, nil
}
