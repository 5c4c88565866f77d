package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow is a process-local limiter. It under-counts across replicas;
// use RedisWindow when more than one instance shares the platform budget.
type SlidingWindow struct {
	mu       sync.Mutex
	key      string
	limit    int
	window   time.Duration
	attempts []time.Time
	now      func() time.Time
}

// NewSlidingWindow creates a limiter admitting limit calls per window.
// Non-positive values select DefaultLimit and DefaultWindow.
func NewSlidingWindow(key string, limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SlidingWindow{
		key:      key,
		limit:    limit,
		window:   window,
		attempts: make([]time.Time, 0, limit),
		now:      time.Now,
	}
}

// Allow prunes expired attempts, then records this one or rejects it.
// Rejected calls are not recorded.
func (w *SlidingWindow) Allow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.attempts) >= w.limit {
		wait := w.attempts[0].Add(w.window).Sub(now)
		if wait <= 0 {
			wait = time.Millisecond
		}
		return &LimitError{Key: w.key, Limit: w.limit, RetryAfter: wait}
	}

	w.attempts = append(w.attempts, now)
	return nil
}

// InWindow returns the number of attempts currently counted.
func (w *SlidingWindow) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.attempts)
}

func (w *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.attempts) && !w.attempts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.attempts = append(w.attempts[:0], w.attempts[i:]...)
	}
}
