package control

import (
	"testing"

	"github.com/hioload/aio/aio"
)

func TestRegisterPoolProbesMirrorsIntoMetrics(t *testing.T) {
	pool := aio.NewBufferPool(aio.NopLogger{}, aio.DefaultPoolConfig(2))
	defer pool.Close()

	dp := NewDebugProbes()
	metrics := NewMetricsRegistry()
	RegisterPoolProbes(dp, metrics, "demo", pool)

	lease := pool.Get(nil)
	defer lease.Release()

	state := dp.DumpState()
	stats, ok := state["pool.demo"].(aio.PoolStats)
	if !ok {
		t.Fatalf("expected pool.demo probe to return aio.PoolStats, got %T", state["pool.demo"])
	}
	if stats.Outstanding != 1 || stats.FreeCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	snap := metrics.GetSnapshot()
	if snap["pool.demo.outstanding"] != 1 {
		t.Fatalf("expected outstanding metric to be mirrored, got %v", snap["pool.demo.outstanding"])
	}
	if snap["pool.demo.free"] != 1 {
		t.Fatalf("expected free metric to be mirrored, got %v", snap["pool.demo.free"])
	}
}
