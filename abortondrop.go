package async

import (
	"context"
	"runtime"
	"sync"
)

// AbortOnDrop owns a [JoinHandle] and aborts its task when the owner is done
// with it: either explicitly with Close, typically deferred, or implicitly
// once the AbortOnDrop becomes unreachable and is garbage collected.
//
// It is used where a parent's lifetime must bound a child task's.
type AbortOnDrop[T any] struct {
	h       *JoinHandle[T]
	cleanup runtime.Cleanup
	once    sync.Once
}

// NewAbortOnDrop wraps h.
func NewAbortOnDrop[T any](h *JoinHandle[T]) *AbortOnDrop[T] {
	a := &AbortOnDrop[T]{h: h}
	a.cleanup = runtime.AddCleanup(a, (*JoinHandle[T]).Abort, h)
	return a
}

// Await is [JoinHandle.Await] on the wrapped handle.
func (a *AbortOnDrop[T]) Await(ctx context.Context) (T, error) {
	return a.h.Await(ctx)
}

// IsFinished is [JoinHandle.IsFinished] on the wrapped handle.
func (a *AbortOnDrop[T]) IsFinished() bool {
	return a.h.IsFinished()
}

// Abort is [JoinHandle.Abort] on the wrapped handle.
func (a *AbortOnDrop[T]) Abort() {
	a.h.Abort()
}

// Close aborts the task. It always returns nil.
func (a *AbortOnDrop[T]) Close() error {
	a.once.Do(func() {
		a.cleanup.Stop()
		a.h.Abort()
	})
	return nil
}

// Detach gives up ownership without aborting the task and returns the
// wrapped handle.
func (a *AbortOnDrop[T]) Detach() *JoinHandle[T] {
	a.once.Do(a.cleanup.Stop)
	return a.h
}
