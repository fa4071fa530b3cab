package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateValidate(t *testing.T) {
	assert.NoError(t, Rate{Limit: 10, Interval: time.Second}.Validate())
	assert.Error(t, Rate{Limit: 0, Interval: time.Second}.Validate())
	assert.Error(t, Rate{Limit: 10, Interval: 0}.Validate())
}

func TestRateIsZero(t *testing.T) {
	assert.True(t, Rate{}.IsZero())
	assert.False(t, Rate{Limit: 1, Interval: time.Second}.IsZero())
}

func TestTokenBucketLimiterPaces(t *testing.T) {
	limiter, err := NewTokenBucketLimiter(Rate{Limit: 100, Interval: time.Second})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	elapsed := time.Since(start)

	// 100/s means roughly 10ms between operations after the first.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestTokenBucketLimiterRejectsInvalidRate(t *testing.T) {
	_, err := NewTokenBucketLimiter(Rate{Limit: -1, Interval: time.Second})
	require.Error(t, err)
}

func TestWaitCancelledContext(t *testing.T) {
	limiter, err := NewTokenBucketLimiter(Rate{Limit: 1, Interval: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.Wait(ctx))
}
