package eventloop

import (
	"testing"
	"time"
)

func TestHandleReceivesPostedEventsInOrder(t *testing.T) {
	loop := NewLoop(4, 16)
	go loop.Run()
	defer loop.Stop()

	got := make(chan int, 4)
	h := loop.NewHandle(func(ev any) { got <- ev.(int) })

	for i := 0; i < 3; i++ {
		if !h.PostEvent(i) {
			t.Fatalf("PostEvent(%d) unexpectedly rejected", i)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case v := <-got:
			if v != i {
				t.Fatalf("got event %d, want %d", v, i)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestPostEventFailsWhenQueueFull(t *testing.T) {
	loop := NewLoop(1, 2)
	h := loop.NewHandle(func(any) {})

	if !h.PostEvent(1) || !h.PostEvent(2) {
		t.Fatal("expected first two posts to succeed")
	}
	if h.PostEvent(3) {
		t.Fatal("expected post to fail once capacity is exhausted")
	}
}

func TestRemovePendingPurgesOnlyMatchingEventsForThatHandle(t *testing.T) {
	loop := NewLoop(8, 16)

	var deliveredA, deliveredB []int
	a := loop.NewHandle(func(ev any) { deliveredA = append(deliveredA, ev.(int)) })
	b := loop.NewHandle(func(ev any) { deliveredB = append(deliveredB, ev.(int)) })

	a.PostEvent(1)
	a.PostEvent(2)
	b.PostEvent(1)

	a.RemovePending(func(ev any) bool { return ev.(int) == 1 })

	if loop.Pending() != 2 {
		t.Fatalf("expected 2 pending events after removal, got %d", loop.Pending())
	}

	go loop.Run()
	defer loop.Stop()

	deadline := time.After(time.Second)
	for loop.Pending() > 0 {
		select {
		case <-deadline:
			t.Fatal("timed out draining loop")
		case <-time.After(time.Millisecond):
		}
	}
	// give the dispatched batch a moment to run its callbacks.
	time.Sleep(10 * time.Millisecond)

	if len(deliveredA) != 1 || deliveredA[0] != 2 {
		t.Fatalf("handle a got %v, want [2]", deliveredA)
	}
	if len(deliveredB) != 1 || deliveredB[0] != 1 {
		t.Fatalf("handle b got %v, want [1]", deliveredB)
	}
}

func TestStopIsIdempotentAndSafeBeforeRun(t *testing.T) {
	loop := NewLoop(1, 1)
	loop.Stop()
	loop.Stop()
}
