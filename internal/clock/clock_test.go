package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockDeliversMeasuredTicks(t *testing.T) {
	var ticks atomic.Int64
	var badDelta atomic.Int64

	c := New(time.Millisecond, func(dt time.Duration) {
		if dt <= 0 {
			badDelta.Add(1)
		}
		ticks.Add(1)
	})

	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool {
		return ticks.Load() >= 10
	}, time.Second, time.Millisecond, "ticks not delivered")

	c.Stop()
	require.Zero(t, badDelta.Load(), "tick delivered with non-positive delta")

	// Stopped means stopped: no further ticks arrive.
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, ticks.Load())
}

func TestClockStartTwice(t *testing.T) {
	c := New(time.Millisecond, func(time.Duration) {})
	require.NoError(t, c.Start(context.Background()))
	require.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
	c.Stop()
}

func TestClockStopIdempotentAndRestartable(t *testing.T) {
	var ticks atomic.Int64
	c := New(time.Millisecond, func(time.Duration) { ticks.Add(1) })

	require.NoError(t, c.Start(context.Background()))
	c.Stop()
	c.Stop()

	// A stopped clock may be started again.
	before := ticks.Load()
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		return ticks.Load() > before
	}, time.Second, time.Millisecond)
	c.Stop()
}

func TestClockStopsOnParentContext(t *testing.T) {
	var ticks atomic.Int64
	c := New(time.Millisecond, func(time.Duration) { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))

	require.Eventually(t, func() bool {
		return ticks.Load() > 0
	}, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		before := ticks.Load()
		time.Sleep(5 * time.Millisecond)
		return ticks.Load() == before
	}, time.Second, time.Millisecond, "loop kept ticking after parent cancel")

	c.Stop()
}

func TestClockDefaultInterval(t *testing.T) {
	c := New(0, func(time.Duration) {})
	require.Equal(t, DefaultInterval, c.interval)
}
