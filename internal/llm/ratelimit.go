package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily from the elapsed time, so it
// needs no background goroutine.
type rateLimiter struct {
	lastRefill time.Time
	now        func() time.Time
	interval   time.Duration
	tokens     int
	capacity   int
	mu         sync.Mutex
}

// newRateLimiter allows requestsPerMinute calls per minute. It returns nil
// when the limit is not positive, which disables limiting.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		tokens:     requestsPerMinute,
		capacity:   requestsPerMinute,
		interval:   time.Minute / time.Duration(requestsPerMinute),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until the next
// token is due.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if earned := int(now.Sub(rl.lastRefill) / rl.interval); earned > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+earned)
		rl.lastRefill = rl.lastRefill.Add(time.Duration(earned) * rl.interval)
	}

	if rl.tokens > 0 {
		rl.tokens--
		return 0
	}
	return rl.lastRefill.Add(rl.interval).Sub(now)
}
