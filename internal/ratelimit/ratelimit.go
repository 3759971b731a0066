// Package ratelimit implements fixed-window request limiting backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// keyPrefix namespaces all rate limit keys in Redis.
const keyPrefix = "ratelimit:"

// Limiter decides whether a request identified by class and client may
// proceed. Implementations should be safe for concurrent use.
type Limiter interface {
	// Attempt counts one request against the window for class+client and
	// reports whether it is within the limit.
	Attempt(ctx context.Context, class, client string, limit int, window time.Duration) (bool, error)
}

// Counter is the counting surface the limiter needs from Redis.
type Counter interface {
	// Count increments key and returns the new value. The increment that
	// creates the key must also start its expiry, in one atomic step: a
	// counter key without a TTL would hold its window open forever.
	Count(ctx context.Context, key string, window time.Duration) (int64, error)
}

type fixedWindow struct {
	counter Counter
}

// New returns a fixed-window Limiter on top of counter.
func New(counter Counter) Limiter {
	return &fixedWindow{counter: counter}
}

func (l *fixedWindow) Attempt(ctx context.Context, class, client string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", keyPrefix, class, client)

	// The first hit in a window opens it. The window boundary is fixed at
	// that moment; later hits inherit the remaining TTL.
	n, err := l.counter.Count(ctx, key, window)
	if err != nil {
		return false, fmt.Errorf("rate limit count: %w", err)
	}

	return n <= int64(limit), nil
}
