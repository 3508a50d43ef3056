// File: osfile/osfile_windows.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Windows preallocation via SetFileValidData after extending the file with
// Truncate, grounded on fz::file::preallocate's Windows branch and on
// the teacher's pool/bufferpool_windows.go pattern of calling kernel32
// through golang.org/x/sys/windows.

//go:build windows

package osfile

import "golang.org/x/sys/windows"

// Preallocate implements aio.File.
func (o *File) Preallocate(size int64) error {
	if size <= 0 {
		return nil
	}
	cur, err := o.f.Seek(0, 2)
	if err != nil {
		return err
	}
	if cur >= size {
		return nil
	}
	if err := o.f.Truncate(size); err != nil {
		return err
	}
	// SetFileValidData requires SE_MANAGE_VOLUME_NAME privilege; best
	// effort only, matching the original's own fallback-on-failure stance.
	_ = windows.SetFileValidData(windows.Handle(o.f.Fd()), size)
	return nil
}
