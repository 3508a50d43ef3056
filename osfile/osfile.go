// File: osfile/osfile.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Package osfile is the concrete, os-package-backed implementation of
// aio.File, grounded on fz::file (libfilezilla/file.hpp) as consumed by
// file_reader/file_writer in reader.cpp/writer.cpp, and styled after the
// teacher's platform-split buffer-pool files (pool/bufferpool_linux.go,
// pool/bufferpool_windows.go): a platform-neutral core here, fsync
// included, with preallocation split into osfile_linux.go,
// osfile_windows.go and osfile_other.go.
package osfile

import (
	"os"
	"time"

	"github.com/hioload/aio/aio"
)

// File adapts *os.File to aio.File.
type File struct {
	f *os.File
}

// Open wraps an already-open *os.File.
func Open(f *os.File) *File { return &File{f: f} }

func (o *File) Read(p []byte) (int, error)  { return o.f.Read(p) }
func (o *File) Write(p []byte) (int, error) { return o.f.Write(p) }
func (o *File) Close() error                { return o.f.Close() }

func (o *File) Seek(offset int64, mode aio.SeekMode) (int64, error) {
	var whence int
	switch mode {
	case aio.SeekBegin:
		whence = os.SEEK_SET
	case aio.SeekCurrent:
		whence = os.SEEK_CUR
	case aio.SeekEnd:
		whence = os.SEEK_END
	default:
		whence = os.SEEK_SET
	}
	return o.f.Seek(offset, whence)
}

func (o *File) Position() int64 {
	pos, err := o.f.Seek(0, os.SEEK_CUR)
	if err != nil {
		return 0
	}
	return pos
}

func (o *File) Size() uint64 {
	st, err := o.f.Stat()
	if err != nil {
		return aio.NoSize
	}
	return uint64(st.Size())
}

func (o *File) Truncate(size int64) error { return o.f.Truncate(size) }

func (o *File) Fsync() error { return o.f.Sync() }

func (o *File) SetModificationTime(unixNano int64) error {
	t := time.Unix(0, unixNano)
	return os.Chtimes(o.f.Name(), t, t)
}

func (o *File) Mtime() (int64, bool) {
	st, err := o.f.Stat()
	if err != nil {
		return 0, false
	}
	return st.ModTime().UnixNano(), true
}

// Opener is the concrete aio.FileOpen / aio.FileWriterOpen implementation
// used by the demo in cmd/aiocp and by tests.
type Opener struct{}

// OpenRead implements aio.FileOpen.
func (Opener) OpenRead(path string) (aio.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return Open(f), nil
}

// OpenWrite implements aio.FileWriterOpen.
func (Opener) OpenWrite(path string, flags aio.FileOpenFlags) (aio.File, error) {
	perm := os.FileMode(0644)
	if flags.Permissions != 0 {
		perm = os.FileMode(flags.Permissions)
	}
	osFlags := os.O_CREATE | os.O_WRONLY
	switch {
	case flags.Append:
		osFlags |= os.O_APPEND
	case flags.Exclusive:
		osFlags |= os.O_EXCL
	default:
		osFlags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, osFlags, perm)
	if err != nil {
		return nil, err
	}
	return Open(f), nil
}

// Remove implements aio.FileWriterOpen.
func (Opener) Remove(path string) error { return os.Remove(path) }
