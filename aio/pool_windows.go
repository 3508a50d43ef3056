// File: aio/pool_windows.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Windows backing allocation for BufferPool, grounded on aio_buffer_pool's
// CreateFileMappingW/MapViewOfFile branch in aio.cpp and on the teacher's
// pool/bufferpool_windows.go pattern of driving kernel32 through
// golang.org/x/sys/windows rather than cgo.

//go:build windows

package aio

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// ShmHandle is a cross-process-transferable reference to a BufferPool's
// backing mapping: the file-mapping HANDLE, cast to uintptr for a
// platform-neutral field type in BufferPool.SharedMemoryInfo.
type ShmHandle = uintptr

type shmBacking struct {
	Handle  ShmHandle
	mapping windows.Handle
	addr    uintptr
}

func platformAllocate(length int, useSHM bool, _ string, logger Logger) ([]byte, shmBacking, bool) {
	if !useSHM {
		return make([]byte, length), shmBacking{}, true
	}

	hi := uint32(uint64(length) >> 32)
	lo := uint32(uint64(length) & 0xffffffff)
	mapping, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, hi, lo, nil)
	if err != nil {
		logger.DebugWarning("buffer pool: CreateFileMapping failed: %v, falling back to heap", err)
		return make([]byte, length), shmBacking{}, true
	}

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, uintptr(length))
	if err != nil {
		windows.CloseHandle(mapping)
		logger.DebugWarning("buffer pool: MapViewOfFile failed: %v, falling back to heap", err)
		return make([]byte, length), shmBacking{}, true
	}

	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	return mem, shmBacking{Handle: ShmHandle(mapping), mapping: mapping, addr: addr}, true
}

func platformRelease(_ []byte, shm shmBacking) {
	if shm.mapping == 0 {
		return
	}
	_ = windows.UnmapViewOfFile(shm.addr)
	_ = windows.CloseHandle(shm.mapping)
}
