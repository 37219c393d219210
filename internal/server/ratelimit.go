package server

import (
	"math"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-key limiter. It backs the endpoint's 429
// responses and reports how long a rejected caller should wait.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*windowState
}

type windowState struct {
	start time.Time
	count int
}

// NewRateLimiter allows limit requests per key within each window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*windowState),
	}
}

// Allow records a request for key. When rejected, retryAfter is the number of
// whole seconds until the window resets, rounded up and at least 1.
func (l *RateLimiter) Allow(key string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= l.window {
		l.windows[key] = &windowState{start: now, count: 1}
		return true, 0
	}
	if w.count < l.limit {
		w.count++
		return true, 0
	}
	remaining := l.window - now.Sub(w.start)
	seconds := int(math.Ceil(remaining.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return false, seconds
}
