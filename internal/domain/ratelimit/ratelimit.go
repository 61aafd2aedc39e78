// Package ratelimit defines per-caller request throttling.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limit allows Rate requests per Period, with up to Burst at once.
type Limit struct {
	Rate   int
	Burst  int
	Period time.Duration
}

// Emission is the spacing between requests at the sustained rate.
func (l Limit) Emission() time.Duration {
	rate := l.Rate
	if rate <= 0 {
		rate = 1
	}
	return l.Period / time.Duration(rate)
}

// BurstSize is Burst, or Rate when Burst is unset.
func (l Limit) BurstSize() int {
	if l.Burst > 0 {
		return l.Burst
	}
	if l.Rate > 0 {
		return l.Rate
	}
	return 1
}

// Result is the outcome of one check.
type Result struct {
	Allowed bool
	// Remaining is how many more requests fit in the current burst.
	Remaining int
	// RetryAfter is set when the request was rejected.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (Result, error)
}

// KeyKind says what a key identifies.
type KeyKind string

const (
	// KeyIP throttles unauthenticated callers by client address.
	KeyIP KeyKind = "ip"
	// KeyAPIKey throttles authenticated callers by key label.
	KeyAPIKey KeyKind = "key"
)

// Key returns "ratelimit:<kind>:<value>".
func Key(kind KeyKind, value string) string {
	return fmt.Sprintf("ratelimit:%s:%s", kind, value)
}
