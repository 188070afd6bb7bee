package session

import (
	"testing"
	"time"
)

func TestCountdownDeliversTicks(t *testing.T) {
	clock := newFakeClock()
	cd := newCountdown(clock)

	ticks := make(chan struct{}, 16)
	cd.Start(func() bool {
		ticks <- struct{}{}
		return true
	})
	defer cd.Stop()

	ticker := clock.lastTicker()
	for i := 0; i < 3; i++ {
		ticker.ch <- time.Time{}
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatalf("tick %d not delivered", i)
		}
	}
}

func TestCountdownStopsWhenCallbackReturnsFalse(t *testing.T) {
	clock := newFakeClock()
	cd := newCountdown(clock)

	ticks := make(chan struct{}, 16)
	cd.Start(func() bool {
		ticks <- struct{}{}
		return false
	})

	ticker := clock.lastTicker()
	ticker.ch <- time.Time{}
	<-ticks

	// Loop ended: the ticker must be stopped and further pushes ignored.
	deadline := time.Now().Add(time.Second)
	for !ticker.isStopped() {
		if time.Now().After(deadline) {
			t.Fatal("ticker not stopped after callback returned false")
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case ticker.ch <- time.Time{}:
		t.Fatal("tick accepted after loop ended")
	default:
	}
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	cd := newCountdown(clock)
	cd.Start(func() bool { return true })

	cd.Stop()
	cd.Stop() // Must not panic.

	ticker := clock.lastTicker()
	deadline := time.Now().Add(time.Second)
	for !ticker.isStopped() {
		if time.Now().After(deadline) {
			t.Fatal("ticker not stopped after Stop")
		}
		time.Sleep(time.Millisecond)
	}
}
