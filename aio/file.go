// File: aio/file.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// File is the capability contract the threaded file reader/writer need from
// an underlying file handle, grounded on fz::file (libfilezilla/file.hpp) as
// used by file_reader/file_writer in reader.cpp/writer.cpp. Kept narrow and
// interface-based the way other_examples' io_contract.go isolates backend
// capability from policy; the concrete implementation lives in package
// osfile so aio never imports os directly.
package aio

import "io"

// SeekMode mirrors fz::file::seek_mode (begin/current/end), needed because
// the reader's Seek contract distinguishes "absolute" from "relative to
// current position" the way lseek does.
type SeekMode int

const (
	SeekBegin SeekMode = iota
	SeekCurrent
	SeekEnd
)

// File is an open file handle usable by both threaded readers and writers.
type File interface {
	io.Closer
	// Read behaves like io.Reader but never blocks indefinitely without a
	// way to observe partial progress; 0 bytes with err == nil is not
	// returned to match io.Reader's contract exactly.
	Read(p []byte) (n int, err error)
	// Write behaves like io.Writer.
	Write(p []byte) (n int, err error)
	// Seek repositions the file, mirroring os.File.Seek / fz::file::seek.
	Seek(offset int64, mode SeekMode) (int64, error)
	// Size returns the current size of the file, or NoSize if it cannot be
	// determined.
	Size() uint64
	// Truncate sets the file's length, used by file_writer's
	// preallocated-truncate-on-close path.
	Truncate(size int64) error
	// Fsync flushes data to stable storage, used by file_writer's
	// two-phase finalize.
	Fsync() error
	// Preallocate reserves size bytes of backing storage without
	// necessarily changing the reported file size, matching
	// fz::file::preallocate's best-effort contract.
	Preallocate(size int64) error
	// SetModificationTime sets the file's mtime in whatever clock
	// representation the caller already has (unix nanoseconds), matching
	// fz::file::set_modification_time.
	SetModificationTime(unixNano int64) error
	// Mtime reports the file's last modification time as unix nanoseconds,
	// or ok == false if it cannot be determined.
	Mtime() (unixNano int64, ok bool)
	// Position reports the current read/write offset.
	Position() int64
}

// FileOpenFlags controls how a File is opened, grounded on the reading_/
// writing_ mode enums file.hpp exposes and the file_writer_flags the
// original adds for write-specific preallocation/permission tuning.
type FileOpenFlags struct {
	Write      bool
	Append     bool
	Exclusive  bool
	// Permissions is advisory; implementations on platforms without POSIX
	// permission bits may ignore it.
	Permissions int
}
