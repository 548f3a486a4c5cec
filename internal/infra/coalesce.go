package infra

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Coalescer shares one in-flight call among concurrent callers asking for the
// same key. Results are not cached once the call returns.
type Coalescer[T any] struct {
	group    singleflight.Group
	inflight atomic.Int64
}

// NewCoalescer creates an empty Coalescer.
func NewCoalescer[T any]() *Coalescer[T] {
	return &Coalescer[T]{}
}

// Do runs fn unless a call for key is already running, in which case it waits
// for that call's result. shared reports whether the result was delivered to
// more than one caller. A canceled ctx releases the caller, not the call.
func (c *Coalescer[T]) Do(ctx context.Context, key string, fn func() (T, error)) (v T, shared bool, err error) {
	ch := c.group.DoChan(key, func() (any, error) {
		c.inflight.Add(1)
		defer c.inflight.Add(-1)
		return fn()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Shared, res.Err
		}
		val, ok := res.Val.(T)
		if !ok {
			var zero T
			return zero, res.Shared, fmt.Errorf("coalesced result for %q has type %T", key, res.Val)
		}
		return val, res.Shared, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// InFlight returns the number of keys with a running call.
func (c *Coalescer[T]) InFlight() int {
	return int(c.inflight.Load())
}
