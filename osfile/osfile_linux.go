// File: osfile/osfile_linux.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Linux preallocation via fallocate(2), grounded on fz::file::preallocate's
// POSIX branch and on the teacher's golang.org/x/sys-based platform split.

//go:build linux

package osfile

import "golang.org/x/sys/unix"

// Preallocate implements aio.File.
func (o *File) Preallocate(size int64) error {
	if size <= 0 {
		return nil
	}
	return unix.Fallocate(int(o.f.Fd()), 0, 0, size)
}
