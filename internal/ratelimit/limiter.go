// Package ratelimit guards outbound platform calls with a sliding-window
// request counter. A tripped limiter fails fast with the time remaining until
// the oldest attempt leaves the window; it never queues or blocks.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults for the LinkedIn platform's published budget.
const (
	DefaultLimit  = 300
	DefaultWindow = 60 * time.Second
)

// Limiter admits or rejects one outbound attempt.
type Limiter interface {
	Allow(ctx context.Context) error
}

// LimitError reports a tripped limiter.
type LimitError struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit %d exceeded for %s, retry after %s", e.Limit, e.Key, e.RetryAfter.Round(time.Millisecond))
}

// IsLimited reports whether err carries a *LimitError and returns its wait time.
func IsLimited(err error) (time.Duration, bool) {
	var le *LimitError
	if errors.As(err, &le) {
		return le.RetryAfter, true
	}
	return 0, false
}

// Unlimited admits every call. Used when a platform publishes no budget.
type Unlimited struct{}

func (Unlimited) Allow(context.Context) error { return nil }
