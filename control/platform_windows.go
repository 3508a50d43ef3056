//go:build windows
// +build windows

// control/platform_windows.go
// Author: hioload/aio contributors
//
// Windows-specific platform probes. Unlike the Linux build, page size isn't
// exposed here as a probe, although aio.NewBufferPool rounds buffer sizes
// to the page size on every platform; the process id is what's actually
// useful for correlating DumpState output with Task Manager/ETW.

package control

import (
	"runtime"

	"golang.org/x/sys/windows"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.pid", func() any {
		return windows.GetCurrentProcessId()
	})
}
