package infra

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBucketCleanup is how often idle client limiters are dropped.
const DefaultBucketCleanup = 5 * time.Minute

// client is one key's limiter and when it was last used.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket limiter. Each key may burst up to
// rate requests and refills at rate per interval.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	rate     int
	interval time.Duration
	limit    rate.Limit

	// Graceful shutdown
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing rate requests per interval per key.
func NewRateLimiter(perInterval int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*client),
		rate:     perInterval,
		interval: interval,
		limit:    rate.Limit(float64(perInterval) / interval.Seconds()),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes a token for key and reports whether the request may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.rate)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Close stops the background cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// cleanupLoop periodically drops idle clients
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(DefaultBucketCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

// cleanup removes clients idle long enough to have refilled completely.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.interval {
			delete(rl.clients, key)
		}
	}
}
