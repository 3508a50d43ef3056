// File: aio/file_writer.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// FileWriter wires ThreadedWriter to a filesystem path, grounded on
// file_writer/file_writer_factory in writer.hpp/writer.cpp, including two
// edge cases the distilled spec drops and original_source/lib/aio/writer.cpp
// still shows: do_close deletes a zero-length file it created if it was
// never finalized, and truncates a preallocated file down to its actual
// written length on close regardless of finalize state.
package aio

// FileWriterOpen is the minimal filesystem capability FileWriterFactory
// needs, implemented by package osfile.
type FileWriterOpen interface {
	OpenWrite(path string, flags FileOpenFlags) (File, error)
	Remove(path string) error
}

// FileWriterFlags controls preallocation, permission and sync handling,
// grounded on file_writer_flags.
type FileWriterFlags struct {
	Permissions int
	// Preallocate, if > 0, reserves this many bytes of backing storage up
	// front and truncates back down to the actual written length on
	// close, matching file_writer::preallocate.
	Preallocate int64
	// Fsync requests an fsync on finalize before the writer is reported
	// finalized, matching file_writer_flags.fsync_. Leave false for writers
	// where losing the last few buffered writes to a crash is acceptable.
	Fsync bool
}

// FileWriter is a ThreadedWriter over a filesystem path, adding
// preallocate/mtime/empty-file-cleanup semantics on top.
type FileWriter struct {
	*ThreadedWriter

	fo           FileWriterOpen
	path         string
	preallocated bool
	wroteAny     bool
	createdEmpty bool
}

// NewFileWriter opens path (creating/truncating per flags.Write semantics
// carried by the caller through FileOpenFlags) and starts a FileWriter over
// it. existingSize, when non-negative, seeks to that offset before writing
// (resume-append mode); pass -1 for a fresh write.
func NewFileWriter(fo FileWriterOpen, logger Logger, path string, openFlags FileOpenFlags, flags FileWriterFlags, existingSize int64, maxQueued int, progress func(int64)) (*FileWriter, error) {
	f, err := fo.OpenWrite(path, openFlags)
	if err != nil {
		return nil, err
	}
	createdEmpty := existingSize < 0
	if existingSize >= 0 {
		// Resume mode: seek to the resume point, then truncate there so any
		// stale bytes the existing file has past that offset don't survive
		// into the new write, matching file_writer_factory::open's
		// seek-then-truncate sequence for a nonzero offset.
		if _, err := f.Seek(existingSize, SeekBegin); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Truncate(existingSize); err != nil {
			f.Close()
			return nil, err
		}
	}
	fw := &FileWriter{
		fo:           fo,
		path:         path,
		createdEmpty: createdEmpty,
	}
	if flags.Preallocate > 0 {
		if err := f.Preallocate(flags.Preallocate); err != nil {
			logger.DebugWarning("file writer %s: preallocate(%d) failed: %v", path, flags.Preallocate, err)
		} else {
			fw.preallocated = true
		}
	}
	fw.ThreadedWriter = NewThreadedWriter(path, logger, f, maxQueued, flags.Fsync, func(n int64) {
		if n > 0 {
			fw.wroteAny = true
		}
		if progress != nil {
			progress(n)
		}
	})
	return fw, nil
}

// Close implements Writer, adding the original's two close-time edge cases
// on top of ThreadedWriter.Close: deleting a file that was created but
// never written to or finalized, and truncating a preallocated file down
// to its real length.
func (fw *FileWriter) Close() {
	if fw.isClosed() {
		fw.ThreadedWriter.Close()
		return
	}
	pos := fw.currentPosition()
	finalizing := fw.isFinalizing()

	if fw.preallocated {
		_ = fw.file.Truncate(pos)
	}

	fw.ThreadedWriter.Close()

	if !finalizing && fw.createdEmpty && pos == 0 {
		_ = fw.fo.Remove(fw.path)
	}
}

func (fw *FileWriter) currentPosition() int64 {
	return fw.file.Position()
}

// Preallocate implements Writer, matching file_writer::preallocate: seeks
// past the current position by size, truncates there, then seeks back,
// rejecting the call outright if the writer has failed, still has buffers
// queued, or is finalizing — any of which would race the worker goroutine's
// own use of the file position.
func (fw *FileWriter) Preallocate(size int64) error {
	if fw.isFailed() {
		return fw.err()
	}
	if fw.queueLen() > 0 || fw.isFinalizing() {
		return ErrFinalizing
	}

	oldPos := fw.file.Position()
	seekTo := oldPos + size
	if _, err := fw.file.Seek(seekTo, SeekBegin); err != nil {
		return err
	}
	if err := fw.file.Truncate(seekTo); err != nil {
		fw.logger.DebugWarning("file writer %s: could not preallocate: %v", fw.path, err)
	}
	if _, err := fw.file.Seek(oldPos, SeekBegin); err != nil {
		fw.setFailed(err)
		return err
	}
	fw.preallocated = true
	return nil
}

// SetModificationTime sets the output file's mtime, matching
// file_writer::set_mtime, which is only valid once the writer has fully
// finalized — calling it mid-stream would be silently clobbered by further
// writes, so it's rejected here rather than allowed to race.
func (fw *FileWriter) SetModificationTime(unixNano int64) error {
	if fw.isFailed() {
		return fw.err()
	}
	if !fw.isFinalized() {
		return ErrNotFinalized
	}
	return fw.file.SetModificationTime(unixNano)
}

// FileWriterFactory opens FileWriters against a filesystem path.
type FileWriterFactory struct {
	fo           FileWriterOpen
	path         string
	openFlags    FileOpenFlags
	flags        FileWriterFlags
	existingSize int64
	maxQueued    int
}

// NewFileWriterFactory returns a factory that opens path for writing. When
// appendOffset is >= 0 the writer seeks to that offset and truncates the
// file there, matching file_writer_factory::open's offset-bearing overload.
// openFlags are passed to OpenWrite unchanged: the factory does not switch
// to a non-truncating open mode by itself, so with osfile.Opener the
// existing contents survive only if openFlags has Append set.
func NewFileWriterFactory(fo FileWriterOpen, path string, openFlags FileOpenFlags, flags FileWriterFlags, appendOffset int64, maxQueued int) *FileWriterFactory {
	return &FileWriterFactory{fo: fo, path: path, openFlags: openFlags, flags: flags, existingSize: appendOffset, maxQueued: maxQueued}
}

// Open implements WriterFactory.
func (f *FileWriterFactory) Open(logger Logger) (Writer, error) {
	return NewFileWriter(f.fo, logger, f.path, f.openFlags, f.flags, f.existingSize, f.maxQueued, nil)
}

// Name implements WriterFactory.
func (f *FileWriterFactory) Name() string { return f.path }

// Clone implements WriterFactory.
func (f *FileWriterFactory) Clone() WriterFactory {
	clone := *f
	return &clone
}
