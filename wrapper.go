package async

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// taskState is the runtime-facing half of a spawned task: its identity,
// its abort flag and the context its computation runs with.
type taskState struct {
	id      uuid.UUID
	name    string
	weight  Weight
	phase   atomic.Uint32

	ctx      context.Context // carries the taskState itself, see stateFrom
	cancel   context.CancelFunc
	co       *coroutine // set on the cooperative runtime
	threaded *Threaded  // set on the threaded runtime
}

// Task phases. A task leaves phaseRunning at most once: either abort is
// requested first, or its computation returns first.
const (
	phaseRunning uint32 = iota
	phaseAborted
	phaseReturned
)

type taskKey struct{}

func stateFrom(ctx context.Context) *taskState {
	st, _ := ctx.Value(taskKey{}).(*taskState)
	return st
}

// bind derives the task context from parent.
func (st *taskState) bind(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	st.ctx = context.WithValue(ctx, taskKey{}, st)
	st.cancel = cancel
}

// requestAbort marks the task aborted and cancels its context. It reports
// false if abort was already requested or the computation already returned.
func (st *taskState) requestAbort() bool {
	if !st.markAborted() {
		return false
	}
	if st.cancel != nil {
		st.cancel()
	}
	return true
}

func (st *taskState) markAborted() bool {
	return st.phase.CompareAndSwap(phaseRunning, phaseAborted)
}

// markReturned reports false if abort was requested before the computation
// returned.
func (st *taskState) markReturned() bool {
	return st.phase.CompareAndSwap(phaseRunning, phaseReturned)
}

func (st *taskState) abortRequested() bool {
	return st.phase.Load() == phaseAborted
}

// checkpoint unwinds the computation if abort has been requested.
func (st *taskState) checkpoint() {
	if st.abortRequested() {
		panic(unwind{})
	}
}

func (st *taskState) logAttrs() []any {
	if st.name == "" {
		return []any{"task_id", st.id}
	}
	return []any{"task_id", st.id, "task_name", st.name}
}

// task is the type-erased form of a cancellable computation, as seen by the
// runtimes.
type task interface {
	state() *taskState

	// run drives the computation and publishes its outcome.
	run() (outcomeKind, *PanicError)

	// abandon publishes Aborted unless an outcome was already published.
	// Runtimes call it for tasks they discard without running to the end.
	abandon() bool
}

// cancellable wraps a computation so that exactly one outcome reaches its
// cell however the computation terminates.
type cancellable[T any] struct {
	st       taskState
	fn       func(ctx context.Context) T
	cell     cell[T]
	onFinish func()
}

func newCancellable[T any](fn func(ctx context.Context) T, cfg *spawnConfig) *cancellable[T] {
	w := &cancellable[T]{fn: fn, onFinish: cfg.onFinish}
	w.st.id = uuid.New()
	w.st.name = cfg.name
	w.st.weight = cfg.weight
	return w
}

func (w *cancellable[T]) state() *taskState {
	return &w.st
}

func (w *cancellable[T]) run() (outcomeKind, *PanicError) {
	defer w.abandon()

	if w.st.abortRequested() {
		w.publish(outcome[T]{kind: aborted})
		return aborted, nil
	}

	var v T
	returned := false
	pe, unwound := try(func() {
		v = w.fn(w.st.ctx)
		returned = w.st.markReturned()
	})

	var o outcome[T]
	switch {
	case pe != nil:
		o = outcome[T]{kind: panicked, pe: pe}
	case unwound || !returned:
		o = outcome[T]{kind: aborted}
	default:
		o = outcome[T]{kind: completed, value: v}
	}
	w.publish(o)
	return o.kind, pe
}

func (w *cancellable[T]) publish(o outcome[T]) {
	w.cell.publish(o)
	if w.onFinish != nil {
		w.onFinish()
	}
}

func (w *cancellable[T]) abandon() bool {
	w.st.markAborted()
	if !w.cell.publishIfEmpty(outcome[T]{kind: aborted}) {
		return false
	}
	if w.onFinish != nil {
		w.onFinish()
	}
	return true
}
