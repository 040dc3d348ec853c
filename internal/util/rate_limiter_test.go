package util

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstIsImmediate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiterWithClock(time.Second, 3, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
}

func TestRateLimiter_WaitsForNextToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	rl := NewRateLimiterWithClock(time.Second, 1, clock)
	require.NoError(t, rl.Wait(ctx))

	done := make(chan error, 1)
	go func() { done <- rl.Wait(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	select {
	case <-done:
		t.Fatal("Wait returned before a token was available")
	default:
	}

	clock.Advance(time.Second)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Wait did not return after the clock advanced")
	}
}

func TestRateLimiter_RefillsAfterIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiterWithClock(time.Second, 2, clock)

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))

	clock.Advance(5 * time.Second)

	// Capped at the burst size
	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiterWithClock(time.Hour, 1, clock)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rl.Wait(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRateLimiter_AlreadyCancelled(t *testing.T) {
	rl := NewRateLimiter(time.Second, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, DefaultRate, rl.Rate())
	assert.Equal(t, DefaultBurst, rl.maxTokens)
	assert.True(t, rl.jitter)
}
