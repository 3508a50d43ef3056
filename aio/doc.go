// Package aio implements an asynchronous I/O pipeline: a fixed-size pool of
// page-aligned buffers leased to readers and writers, coordinated through a
// waiter-signaling protocol that lets a cooperative event-loop handler drive
// bounded worker goroutines performing blocking syscalls.
//
// Author: hioload/aio contributors
// License: Apache-2.0
package aio
