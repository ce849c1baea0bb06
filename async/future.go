package async

import (
	"context"
	"sync"
	"time"
)

// Future is the eventual result of an asynchronous task. A caller may wait on
// a Future for a bounded time, and then detach from it: the task is never
// cancelled, and a detached callback observes its eventual result.
type Future[T any] struct {
	done Promise

	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	detached func(T, error)
}

// NewFuture returns a new, unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(Promise)}
}

// Resolve the Future with a value and error. Resolve may be called only once.
// If a callback was detached onto the Future, it's invoked synchronously.
func (f *Future[T]) Resolve(value T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		panic("Future resolved twice")
	}
	f.value, f.err, f.resolved = value, err, true
	var fn = f.detached
	f.mu.Unlock()

	f.done.Resolve()

	if fn != nil {
		fn(value, err)
	}
}

// Done returns a channel which is closed when the Future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the Future resolves, and returns its result.
func (f *Future[T]) Get() (T, error) {
	f.done.Wait()
	return f.value, f.err
}

// Wait blocks until the Future resolves, |timeout| elapses, or |ctx| is done.
// In the latter cases ErrDeadline or the context error is returned, and the
// Future continues to run.
func (f *Future[T]) Wait(ctx context.Context, timeout time.Duration) (T, error) {
	if err := f.done.WaitFor(ctx, timeout); err != nil {
		var zero T
		return zero, err
	}
	return f.value, f.err
}

// Detach registers |fn| to be called with the result of the Future when it
// resolves. If the Future is already resolved, |fn| is called immediately.
// At most one callback may be detached.
func (f *Future[T]) Detach(fn func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		if f.detached != nil {
			f.mu.Unlock()
			panic("Future already detached")
		}
		f.detached = fn
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	fn(f.value, f.err)
}
