package session

import (
	"sync"
	"time"
)

// Countdown is the one-second tick source owned by a Session. It is
// started and stopped only through the session's state transitions and
// never free-runs: once Stop is called, or once the tick callback reports
// the session is done, no further ticks are delivered.
type Countdown struct {
	clock    Clock
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func newCountdown(clock Clock) *Countdown {
	return &Countdown{
		clock:    clock,
		interval: time.Second,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine. onTick is invoked once
// per interval and returns false to end the loop (timer expired or the
// session left IN_PROGRESS).
func (c *Countdown) Start(onTick func() bool) {
	ticker := c.clock.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C():
				if !onTick() {
					return
				}
			}
		}
	}()
}

// Stop cancels the countdown. Safe to call multiple times and from the
// tick goroutine itself.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
