// control/aio_probes.go
// Author: hioload/aio contributors
// License: Apache-2.0
//
// Wires aio.BufferPool occupancy and reader/writer byte counts into
// DebugProbes and MetricsRegistry, the domain-specific use this port gives
// the teacher's introspection layer in place of the websocket/session
// counters the original control package had no analogue for here.

package control

import "github.com/hioload/aio/aio"

// RegisterPoolProbes registers a named debug probe exposing pool's current
// occupancy and mirrors the same snapshot into metrics under name-prefixed
// keys every time the probe fires.
func RegisterPoolProbes(dp *DebugProbes, metrics *MetricsRegistry, name string, pool *aio.BufferPool) {
	dp.RegisterProbe("pool."+name, func() any {
		stats := pool.Stats()
		if metrics != nil {
			metrics.Set("pool."+name+".outstanding", stats.Outstanding)
			metrics.Set("pool."+name+".free", stats.FreeCount)
		}
		return stats
	})
}

// UnregisterPoolProbes removes the probe RegisterPoolProbes installed,
// matched by the same name. Callers unregister before closing the pool, so
// DumpState never calls Stats() on a closed pool.
func UnregisterPoolProbes(dp *DebugProbes, name string) {
	dp.UnregisterProbe("pool." + name)
}

// TransferCounter returns a progress callback suitable for
// aio.NewFileWriter's or aio.NewThreadedWriter's progress parameter: every
// call accumulates into a "transfer.<name>.bytes" counter in metrics rather
// than overwriting it, so the total survives across the writer's whole
// finalize-to-close lifetime.
func TransferCounter(metrics *MetricsRegistry, name string) func(written int64) {
	key := "transfer." + name + ".bytes"
	return func(written int64) {
		metrics.Add(key, written)
	}
}
