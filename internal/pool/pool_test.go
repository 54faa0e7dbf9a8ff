package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolBoundEnforced(t *testing.T) {
	p := NewPool(2)

	l1, err := p.Acquire(context.Background(), "a.mp4", true)
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background(), "b.mp4", true)
	require.NoError(t, err)
	require.Equal(t, 2, p.Outstanding())

	// Third acquisition blocks until a slot frees; with a deadline it
	// fails instead.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, "c.mp4", true)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, l1.Release())
	require.Equal(t, 1, p.Outstanding())

	l3, err := p.Acquire(context.Background(), "c.mp4", true)
	require.NoError(t, err)

	require.NoError(t, l2.Release())
	require.NoError(t, l3.Release())
	require.Zero(t, p.Outstanding())
}

func TestLeaseReleaseExactlyOnce(t *testing.T) {
	p := NewPool(1)

	l, err := p.Acquire(context.Background(), "a.mp4", true)
	require.NoError(t, err)

	require.NoError(t, l.Release())
	require.ErrorIs(t, l.Release(), ErrReleased)

	// The double release must not have freed the slot twice: exactly one
	// acquisition fits.
	l2, err := p.Acquire(context.Background(), "b.mp4", true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, "c.mp4", true)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, l2.Release())
}

func TestPoolClose(t *testing.T) {
	p := NewPool(2)

	l, err := p.Acquire(context.Background(), "a.mp4", true)
	require.NoError(t, err)

	p.Close()

	_, err = p.Acquire(context.Background(), "b.mp4", true)
	require.ErrorIs(t, err, ErrClosed)

	// An outstanding lease survives close and still releases cleanly.
	require.NoError(t, l.Release())
	require.Zero(t, p.Outstanding())
}

func TestPoolMinimumBound(t *testing.T) {
	p := NewPool(0)

	l, err := p.Acquire(context.Background(), "a.mp4", true)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestLeaseNotReadyBeforeOpen(t *testing.T) {
	p := NewPool(1)

	// The path does not exist, so the background open fails; the lease
	// stays not-ready forever but remains releasable.
	l, err := p.Acquire(context.Background(), "does-not-exist.mp4", true)
	require.NoError(t, err)

	require.False(t, l.Ready())
	_, ok := l.Duration()
	require.False(t, ok)
	require.Nil(t, l.Poster())

	// Play on a not-ready player is a no-op, not a crash.
	l.Play()

	require.NoError(t, l.Release())
}
