// Package infra holds process-local building blocks shared by the API server
// and its client: rate limiting, circuit breaking and request coalescing.
package infra

import (
	"fmt"
	"sync"
	"time"
)

// Breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 30 * time.Second
	DefaultHalfOpenProbes   = 2
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // requests flow
	BreakerOpen                         // requests fail fast
	BreakerHalfOpen                     // limited probes allowed
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker fails fast after consecutive failures against a remote API and
// lets a few probe requests through once the reset timeout has passed.
type Breaker struct {
	mu sync.Mutex

	threshold    int
	resetTimeout time.Duration
	probes       int
	now          func() time.Time

	state       BreakerState
	failures    int
	openedAt    time.Time
	probesInUse int
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithResetTimeout sets how long the breaker stays open before probing.
func WithResetTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithHalfOpenProbes sets how many requests may probe a half-open breaker.
func WithHalfOpenProbes(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.probes = n
		}
	}
}

// withClock replaces time.Now, for tests.
func withClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// NewBreaker creates a closed breaker.
func NewBreaker(opts ...BreakerOption) *Breaker {
	b := &Breaker{
		threshold:    DefaultFailureThreshold,
		resetTimeout: DefaultResetTimeout,
		probes:       DefaultHalfOpenProbes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a request may proceed. When it returns an error the
// error is a *BreakerOpenError. Every nil return must be followed by exactly
// one of Success, Failure or Release.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return b.openError()
		}
		b.state = BreakerHalfOpen
		b.probesInUse = 1
		return nil
	case BreakerHalfOpen:
		if b.probesInUse >= b.probes {
			return b.openError()
		}
		b.probesInUse++
		return nil
	default:
		return nil
	}
}

// Success records a successful request and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = BreakerClosed
	b.probesInUse = 0
}

// Failure records a failed request, opening the breaker at the threshold or
// on any failed probe.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.probesInUse = 0
	}
}

// Release returns a slot taken by Allow for a request that was abandoned
// before an outcome was known. It records neither success nor failure.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen && b.probesInUse > 0 {
		b.probesInUse--
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// openError must be called with b.mu held.
func (b *Breaker) openError() *BreakerOpenError {
	return &BreakerOpenError{
		Failures: b.failures,
		RetryAt:  b.openedAt.Add(b.resetTimeout),
	}
}

// BreakerOpenError is returned by Allow while the breaker rejects requests.
type BreakerOpenError struct {
	Failures int
	RetryAt  time.Time
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit open after %d consecutive failures, retry after %s",
		e.Failures, e.RetryAt.Format(time.RFC3339))
}
