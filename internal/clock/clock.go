// Package clock provides the single periodic driver for playback. All
// engine mutation happens inside its tick callback; ticks are serialized,
// so a tick (including any synchronous promotion) always completes before
// the next one is delivered.
package clock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrAlreadyStarted = errors.New("clock already started")

// DefaultInterval is the nominal 60 Hz playback cadence.
const DefaultInterval = time.Second / 60

// Clock drives a fixed-cadence tick callback from a single goroutine. The
// delta passed to the callback is measured against the monotonic clock, not
// assumed constant, so scheduler jitter shifts phase without losing time.
type Clock struct {
	interval time.Duration
	tick     func(dt time.Duration)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(interval time.Duration, tick func(dt time.Duration)) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{interval: interval, tick: tick}
}

// Start launches the tick loop.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true

	go c.run(runCtx, c.done)
	return nil
}

// Stop halts the loop and waits for the in-flight tick, if any, to finish.
// Idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Clock) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			c.tick(dt)
		}
	}
}
