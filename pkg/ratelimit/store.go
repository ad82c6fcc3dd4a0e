// Package ratelimit counts requests per key over a rolling window.
//
// Both stores keep a log of admitted hits and evaluate the window relative to
// the current time, so a client can never exceed Limit hits in any interval of
// length Window. Rejected attempts are not recorded and do not push the window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Hit.
type Decision struct {
	Allowed   bool
	Limit     int
	Count     int // admitted hits inside the window, including this one when allowed
	Remaining int
	ResetAt   time.Time // when the oldest hit in the window expires
}

// RetryAfter returns how long a rejected client should wait, at least one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait.Round(time.Second)
}

// Store records hits for a key and decides whether another one fits the window.
// Implementations must be safe for concurrent use.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
	Close() error
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
