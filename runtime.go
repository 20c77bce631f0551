package async

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runtime is the capability to run tasks.
//
// There are exactly two implementations: [*Threaded], which runs every task
// on its own goroutine, and [*Executor], which runs every task on a single
// logical thread and only switches between them at suspension points.
// Code written against Runtime behaves the same on both.
//
// A Runtime is constructed explicitly, usually once at process start (see
// [NewRuntime]), and passed to whoever needs to spawn tasks.
type Runtime interface {
	Clock

	// Sleep suspends the calling task for at least d.
	//
	// When ctx is the context of a task and that task is aborted or
	// discarded, Sleep does not return: the task is unwound and its handle
	// reports [ErrAborted]. When ctx is any other context, Sleep returns
	// ctx.Err() if ctx is done before d elapses.
	Sleep(ctx context.Context, d time.Duration) error

	// SleepUntil is like Sleep but waits until the Runtime's clock reaches
	// deadline.
	SleepUntil(ctx context.Context, deadline Instant) error

	// Yield lets other tasks run before the calling task continues.
	// Like Sleep, it unwinds the calling task if it has been aborted.
	Yield(ctx context.Context) error

	// Close discards every task that has not finished yet. Their handles
	// report [ErrAborted]. Tasks spawned after Close are aborted at once.
	Close() error

	// submit registers a task and returns the function that makes the
	// task notice an abort request.
	submit(t task) (abort func())
}

// Backends accepted by [NewRuntime].
const (
	BackendThreaded    = "threaded"
	BackendCooperative = "cooperative"
)

// NewRuntime creates the [Runtime] for backend.
//
// For [BackendCooperative], the returned Runtime is an [*Executor] and some
// goroutine must drive it with [Executor.Run].
func NewRuntime(backend string, opts ...Option) (Runtime, error) {
	switch backend {
	case BackendThreaded:
		return NewThreaded(opts...), nil
	case BackendCooperative:
		return NewExecutor(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Option configures a [Runtime].
type Option func(*options)

type options struct {
	clock  Clock
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		clock:  defaultClock,
		logger: slog.Default(),
	}
}

// WithClock sets the clock a [Runtime] measures sleeps against.
// The [*Threaded] runtime always sleeps in real time and only uses the clock
// for its Now method.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger a [Runtime] reports task lifecycle events to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Weight orders ready tasks on an [*Executor]: heavier tasks run first,
// tasks of equal weight run in the order they became ready.
type Weight int

// SpawnOption configures a single spawned task.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	name     string
	weight   Weight
	onFinish func() // called once the outcome is published
}

// WithName names a task in log records.
func WithName(name string) SpawnOption {
	return func(c *spawnConfig) { c.name = name }
}

// WithWeight sets the [Weight] of a task. The [*Threaded] runtime ignores it.
func WithWeight(w Weight) SpawnOption {
	return func(c *spawnConfig) { c.weight = w }
}

func onFinish(f func()) SpawnOption {
	return func(c *spawnConfig) { c.onFinish = f }
}

// Spawn starts fn as a new task on rt and returns its handle.
//
// The task starts making progress whether or not the handle is ever awaited
// or even kept. Dropping the handle does not abort the task; see
// [AbortOnDrop] for that.
//
// fn receives the task's context. It is canceled when the task is aborted,
// and it identifies the task to suspension points such as [Runtime.Sleep]
// and [JoinHandle.Await]. It must not be passed to suspension points on
// other goroutines.
func Spawn[T any](rt Runtime, fn func(ctx context.Context) T, opts ...SpawnOption) *JoinHandle[T] {
	if fn == nil {
		panic("async: Spawn called with nil function")
	}
	var cfg spawnConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	w := newCancellable(fn, &cfg)
	h := &JoinHandle[T]{st: &w.st, cell: &w.cell}
	h.abort = rt.submit(w)
	return h
}

// Go is like [Spawn] for functions that produce no value.
func Go(rt Runtime, fn func(ctx context.Context), opts ...SpawnOption) *JoinHandle[struct{}] {
	if fn == nil {
		panic("async: Go called with nil function")
	}
	return Spawn(rt, func(ctx context.Context) struct{} {
		fn(ctx)
		return struct{}{}
	}, opts...)
}

// AfterFunc spawns a task on rt that calls f after d.
// Aborting the returned handle before d elapses prevents the call.
func AfterFunc(rt Runtime, d time.Duration, f func()) *JoinHandle[struct{}] {
	if f == nil {
		panic("async: AfterFunc called with nil function")
	}
	return Go(rt, func(ctx context.Context) {
		_ = rt.Sleep(ctx, d)
		f()
	}, WithName("after-func"))
}

// Sleep suspends the calling task for at least d on the [Runtime] that
// spawned it. Outside of a task, Sleep waits on a real-time timer.
//
// See [Runtime.Sleep] for how abort and cancellation are handled.
func Sleep(ctx context.Context, d time.Duration) error {
	if rt := RuntimeFrom(ctx); rt != nil {
		return rt.Sleep(ctx, d)
	}
	return sleepTimer(ctx, d)
}

// RuntimeFrom returns the [Runtime] running the task that ctx belongs to,
// or nil if ctx is not a task context.
func RuntimeFrom(ctx context.Context) Runtime {
	st := stateFrom(ctx)
	switch {
	case st == nil:
		return nil
	case st.co != nil:
		return st.co.exec
	default:
		return st.threaded
	}
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	return blockOn(ctx, t.C)
}

// blockOn blocks the calling goroutine until ch is ready or ctx is done.
// A threaded task whose own context is done is unwound.
func blockOn[E any](ctx context.Context, ch <-chan E) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		if st := stateFrom(ctx); st != nil && st.co == nil {
			st.checkpoint()
		}
		return ctx.Err()
	}
}

func logOutcome(l *slog.Logger, st *taskState, kind outcomeKind, pe *PanicError) {
	if pe != nil {
		attrs := append(st.logAttrs(), "panic", pe.Value, "stack", string(pe.Stack))
		l.Error("task panicked", attrs...)
		return
	}
	l.Debug("task finished", append(st.logAttrs(), "outcome", kind.String())...)
}
