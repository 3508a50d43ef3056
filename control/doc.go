// Package control
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Runtime metrics and debug introspection layer for the aio pipeline.
//
// Provides concurrent-safe state handling primitives including:
//   - Metrics telemetry registration and snapshotting
//   - State export, debug hooks, and probe registration
//   - BufferPool occupancy wired into both of the above
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
