package async

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// A JoinHandle is the awaitable, abortable reference to a task returned by
// [Spawn].
//
// A JoinHandle may be shared by several goroutines, but only one task or
// goroutine should be awaiting it at any time: a new awaiter replaces the
// wake-up registration of the previous one.
type JoinHandle[T any] struct {
	st    *taskState
	cell  *cell[T]
	abort func()

	mu  sync.Mutex
	out *outcome[T] // consumed outcome, kept for later calls
}

// ID returns the unique identifier of the task.
func (h *JoinHandle[T]) ID() uuid.UUID {
	return h.st.id
}

// Name returns the name the task was spawned with, if any.
func (h *JoinHandle[T]) Name() string {
	return h.st.name
}

// Abort requests the task to stop.
//
// Abort is advisory and asynchronous: the task stops at its next suspension
// point, or when its runtime discards it. Await the handle to observe
// [ErrAborted]. Abort is idempotent.
//
// Whichever comes first decides the outcome: if Abort is called before the
// task's function returns, the handle reports [ErrAborted] even if the
// function returns without reaching a suspension point. Once the function
// has returned, Abort has no effect and the handle reports its value.
func (h *JoinHandle[T]) Abort() {
	if h.cell.finished() {
		return
	}
	if h.st.requestAbort() && h.abort != nil {
		h.abort()
	}
}

// IsFinished reports whether the task has reached a terminal outcome,
// including being aborted. Once true, it stays true.
func (h *JoinHandle[T]) IsFinished() bool {
	return h.cell.finished()
}

// Poll returns the task's result without waiting.
// It returns [ErrPending] if the task has not finished yet.
func (h *JoinHandle[T]) Poll() (T, error) {
	if o, ok := h.poll(nil); ok {
		return o.result()
	}
	var zero T
	return zero, ErrPending
}

// Await waits for the task to finish and returns its value.
//
// The error is [ErrAborted] if the task was aborted, a [*PanicError] if it
// panicked, or ctx.Err() if ctx is done first (the task keeps running).
//
// When ctx is the context of a task running on an [*Executor], Await
// suspends that task instead of blocking, letting other tasks run.
// Awaiting the same handle again returns the same result.
func (h *JoinHandle[T]) Await(ctx context.Context) (T, error) {
	var o outcome[T]
	err := await(ctx, func(wake func()) bool {
		var ok bool
		o, ok = h.poll(wake)
		return ok
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return o.result()
}

// poll takes the outcome if it is available. Otherwise, if wake is not nil,
// it arranges for wake to be called once the outcome is published.
func (h *JoinHandle[T]) poll(wake func()) (outcome[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.out != nil {
		return *h.out, true
	}
	if o, ok := h.cell.take(); ok {
		h.out = &o
		return o, true
	}
	if wake == nil {
		return outcome[T]{}, false
	}
	h.cell.registerWaker(wake)
	// The outcome may have been published between take and registerWaker.
	if o, ok := h.cell.take(); ok {
		h.out = &o
		return o, true
	}
	return outcome[T]{}, false
}
