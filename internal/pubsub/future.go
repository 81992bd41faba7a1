package pubsub

import (
	"context"
	"sync"
)

// Future is the one-shot completion of an asynchronous publish or
// acknowledge call. It is resolved exactly once by the driver that
// issued the call.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve completes the future. Calls after the first are ignored.
func (f *Future) Resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the operation completes or ctx is done.
// A ctx error is returned as-is so callers can tell cancellation
// apart from an operation failure.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done exposes the completion channel for select loops.
func (f *Future) Done() <-chan struct{} { return f.done }

// Resolved returns an already-completed future, for callers that fail
// before the call leaves the process.
func Resolved(err error) *Future {
	f := NewFuture()
	f.Resolve(err)
	return f
}
