package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksBurst(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(7, 3*time.Second, 30*time.Second)
	t0 := time.Unix(1_700_000_000, 0)

	for i := 0; i < 7; i++ {
		d, err := rl.Check(ctx, 1, t0.Add(time.Duration(i)*100*time.Millisecond))
		require.NoError(t, err)
		require.True(t, d.Allowed, "message %d should pass", i+1)
	}

	blockedAt := t0.Add(700 * time.Millisecond)
	d, err := rl.Check(ctx, 1, blockedAt)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.JustBlocked)
	assert.Equal(t, 30*time.Second, d.Remaining)

	// every message during the block reports strictly less time left
	prev := d.Remaining
	for i := 1; i <= 5; i++ {
		d, err := rl.Check(ctx, 1, blockedAt.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.False(t, d.JustBlocked)
		assert.Less(t, d.Remaining, prev)
		prev = d.Remaining
	}

	d, err = rl.Check(ctx, 1, blockedAt.Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed, "block must lift after block duration")
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(2, 3*time.Second, 30*time.Second)
	t0 := time.Unix(1_700_000_000, 0)

	for _, off := range []time.Duration{0, time.Second} {
		d, _ := rl.Check(ctx, 1, t0.Add(off))
		require.True(t, d.Allowed)
	}
	// the first hit has left the window, so this is the second hit in it
	d, _ := rl.Check(ctx, 1, t0.Add(3100*time.Millisecond))
	assert.True(t, d.Allowed)

	d, _ = rl.Check(ctx, 1, t0.Add(3200*time.Millisecond))
	assert.False(t, d.Allowed)
}

func TestRateLimiterSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(1, time.Minute, time.Minute)
	now := time.Now()

	_, _ = rl.Check(ctx, 1, now)
	d, _ := rl.Check(ctx, 1, now)
	require.False(t, d.Allowed)

	d, _ = rl.Check(ctx, 2, now)
	assert.True(t, d.Allowed)
}

func TestRateLimiterSweep(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(1, time.Second, 10*time.Second)
	now := time.Now()

	_, _ = rl.Check(ctx, 1, now) // idle soon
	_, _ = rl.Check(ctx, 2, now)
	_, _ = rl.Check(ctx, 2, now) // blocked for 10s

	n, err := rl.Sweep(ctx, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, _ = rl.Sweep(ctx, now.Add(11*time.Second))
	assert.Equal(t, 1, n)
}
