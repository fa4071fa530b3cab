// Package ratelimit controls the pace of operations against external services.
//
// The phoenix-connector uses it to pace outbound websocket frames: Phoenix
// servers typically sit behind proxies or load balancers that throttle or drop
// clients flooding control traffic, so the default transport can be configured
// with an outbound Rate.
//
// The package is a thin abstraction over Uber's token-bucket limiter so the
// rest of the codebase never imports the third-party type directly.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes a limit of Limit operations per Interval.
type Rate struct {
	// Limit is the maximum number of operations allowed within Interval.
	Limit int

	// Interval is the window over which Limit applies, e.g. time.Second.
	Interval time.Duration
}

// IsZero reports whether the rate is unset, meaning no limiting applies.
func (r Rate) IsZero() bool {
	return r.Limit == 0 && r.Interval == 0
}

// Validate checks that the rate describes a usable limit.
func (r Rate) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", r.Limit)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("rate interval must be positive, got %v", r.Interval)
	}
	return nil
}

// RateLimiter paces operations according to a configured Rate.
type RateLimiter interface {
	// Wait blocks until the next operation is permitted or the context is
	// cancelled, in which case it returns the context error.
	Wait(ctx context.Context) error
}

// tokenBucket implements RateLimiter on top of Uber's limiter.
type tokenBucket struct {
	limiter ratelimit.Limiter
}

// NewTokenBucketLimiter creates a RateLimiter allowing rate.Limit operations
// per rate.Interval, smoothed into an even per-second pace.
func NewTokenBucketLimiter(rate Rate) (RateLimiter, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}

	return &tokenBucket{limiter: ratelimit.New(rps)}, nil
}

// Wait implements RateLimiter.
func (l *tokenBucket) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	l.limiter.Take()
	return nil
}
