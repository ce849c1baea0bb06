// Package async implements a simple Promise API, typed Futures of tasks, and
// a bounded worker Pool which runs tasks that may block indefinitely.
package async

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline is returned when a Promise or Future doesn't resolve within
// the given timeout.
var ErrDeadline = errors.New("deadline elapsed before future resolved")

// Promise is a simple notification primitive for asynchronous events.
type Promise chan struct{}

// Resolve wakes any clients currently waiting on the Promise
func (s Promise) Resolve() {
	close(s)
}

// Wait synchronously blocks until the Promise is resolved.
func (s Promise) Wait() {
	<-s
}

// WaitFor blocks until the Promise is resolved, |timeout| elapses, or |ctx|
// is done. It returns nil, ErrDeadline, or the context error respectively.
// A resolved Promise always returns nil, even if |ctx| is also done.
func (s Promise) WaitFor(ctx context.Context, timeout time.Duration) error {
	select {
	case <-s:
		return nil
	default:
	}

	var timer = time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s:
		return nil
	case <-timer.C:
		return ErrDeadline
	case <-ctx.Done():
		return ctx.Err()
	}
}
