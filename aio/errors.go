// File: aio/errors.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Error taxonomy. Adapted from the teacher's api/errors.go structured-error
// pattern (Code/Message/Context + sentinel vars), remapped onto the four
// error kinds this core actually distinguishes: construction failure,
// stream error (latched, poisons the component), precondition error
// (rejected but not necessarily poisoning), and programmer error (panics,
// the Go analogue of the original's abort()).

package aio

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition/construction failures.
var (
	ErrClosed            = errors.New("aio: component is closed")
	ErrPoolExhausted     = errors.New("aio: buffer pool has no free buffers")
	ErrInvalidSeek       = errors.New("aio: invalid seek range")
	ErrNotSeekable       = errors.New("aio: reader is not seekable")
	ErrSizeLimitExceeded = errors.New("aio: size limit exceeded")
	ErrFinalizing        = errors.New("aio: writer is finalizing")
	ErrNotFinalized      = errors.New("aio: writer has not fully finalized")
	ErrConstructionFailed = errors.New("aio: construction failed")
)

// ErrorCode classifies a StreamError for callers that need programmatic
// dispatch rather than errors.Is comparisons.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeIO
	ErrCodeShortRead
	ErrCodeShortWrite
	ErrCodeSeekMismatch
	ErrCodeFsync
)

// StreamError describes a stream failure with a code and the name of the
// failing component. The readers and writers in this package do not build
// one: they latch the underlying error as is and report ResultError from
// every subsequent call.
type StreamError struct {
	Code    ErrorCode
	Name    string
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("aio: %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("aio: %s: %s", e.Name, e.Message)
}

func (e *StreamError) Unwrap() error { return e.Cause }

func newStreamError(name, message string, code ErrorCode, cause error) *StreamError {
	return &StreamError{Code: code, Name: name, Message: message, Cause: cause}
}
