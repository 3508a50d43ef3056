//go:build linux
// +build linux

// control/platform_linux.go
// Author: hioload/aio contributors
//
// Linux-specific platform probes. The page size feeds directly into the
// pool's buffer layout sizing in aio.roundUpToPage, so exposing it here
// lets DumpState explain why a given pool rounded up the way it did.

package control

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.pagesize", func() any {
		return unix.Getpagesize()
	})
	dp.RegisterProbe("platform.pid", func() any {
		return unix.Getpid()
	})
}
