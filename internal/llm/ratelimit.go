package llm

import (
	"sync"
	"time"
)

// Defaults for the shared provider budget.
const (
	DefaultRateLimit  = 15
	DefaultRateWindow = time.Minute
)

// RateLimiter admits at most max outbound calls in any trailing window.
// One instance is shared by every provider call in the process.
type RateLimiter struct {
	mu     sync.Mutex
	stamps []time.Time // oldest first, never older than window
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a sliding-window limiter allowing max calls per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow records a call and returns nil, or returns a *RateLimitError carrying
// the time until the oldest recorded call leaves the window.
func (rl *RateLimiter) Allow() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.trim(now)

	if len(rl.stamps) >= rl.max {
		wait := rl.window - now.Sub(rl.stamps[0])
		if wait < time.Second {
			wait = time.Second
		}
		rateLimitRejections.Inc()
		return &RateLimitError{Wait: wait}
	}
	rl.stamps = append(rl.stamps, now)
	return nil
}

// Remaining returns how many calls would be admitted right now.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.trim(rl.now())
	return rl.max - len(rl.stamps)
}

func (rl *RateLimiter) trim(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.stamps) && !rl.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.stamps = append(rl.stamps[:0], rl.stamps[i:]...)
	}
}
