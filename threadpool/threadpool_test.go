package threadpool

import (
	"sync/atomic"
	"testing"
)

func TestSpawnRunsFunctionAndJoinWaits(t *testing.T) {
	var ran atomic.Bool
	task := Spawn(func() { ran.Store(true) })
	task.Join()
	if !ran.Load() {
		t.Fatal("expected spawned function to have run before Join returned")
	}
}

func TestJoinIsIdempotentAndConcurrentSafe(t *testing.T) {
	done := make(chan struct{})
	task := Spawn(func() { <-done })

	joined := make(chan struct{})
	go func() { task.Join(); joined <- struct{}{} }()
	go func() { task.Join(); joined <- struct{}{} }()

	close(done)
	<-joined
	<-joined
	task.Join()
}
