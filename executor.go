package async

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// An Executor is the cooperative [Runtime]: it runs every task on a single
// logical thread of execution.
//
// Spawning a task only adds it to a ready queue. Some goroutine must drive
// the Executor, either with Run, which behaves like an event loop, or with
// RunUntilIdle, which returns as soon as there is nothing left to do right
// now. The driving goroutine runs ready tasks one at a time; a task keeps
// running until it suspends itself by sleeping, yielding or awaiting
// something. Nothing else is ever preempted, so tasks of one Executor can
// share data without locks.
//
// The ready queue is a priority queue: tasks with a greater [Weight] run
// first, tasks of equal weight run in the order they became ready.
//
// Delays are kept in a [Wheel] measured against the Executor's [Clock].
// With a [ManualClock], RunUntilIdle makes timer-driven code deterministic.
//
// A task must only block in suspension points of this package. A task
// blocking in anything else, such as a channel operation, blocks every
// other task too. Calling runtime.Goexit in a task is not supported.
type Executor struct {
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	pq       priorityqueue[*coroutine]
	live     map[*coroutine]struct{}
	seq      uint64
	driving  bool
	closed   bool
	tornDown bool

	wakeup  chan struct{}
	done    chan struct{}
	current atomic.Pointer[coroutine]

	wheel Wheel[func()] // only touched by the driving goroutine
}

// NewExecutor creates an [Executor].
func NewExecutor(opts ...Option) *Executor {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Executor{
		clock:  o.clock,
		logger: o.logger,
		live:   make(map[*coroutine]struct{}),
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Now implements [Clock] with the Executor's clock.
func (e *Executor) Now() Instant {
	return e.clock.Now()
}

func (e *Executor) submit(t task) func() {
	st := t.state()
	st.bind(context.Background())

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		t.abandon()
		st.cancel()
		e.logger.Debug("task spawned on closed executor", st.logAttrs()...)
		return nil
	}
	e.seq++
	co := e.newCoroutine(t, e.seq)
	co.flag |= flagEnqueued
	e.live[co] = struct{}{}
	e.pq.Push(co)
	e.mu.Unlock()

	e.nudge()
	e.logger.Debug("task spawned", st.logAttrs()...)
	return co.wake
}

func (e *Executor) resume(co *coroutine) {
	e.mu.Lock()
	if e.closed || co.flag&(flagEnqueued|flagEnded) != 0 {
		e.mu.Unlock()
		return
	}
	co.flag |= flagEnqueued
	e.pq.Push(co)
	e.mu.Unlock()
	e.nudge()
}

func (e *Executor) nudge() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// Run drives e until ctx is done or e is closed.
//
// Run fires timers as they become due, runs ready tasks, and otherwise
// sleeps until a task is woken or the next timer is due. Waiting is measured
// in real time, so Run is meant for real clocks; drive an Executor with a
// [ManualClock] with RunUntilIdle.
//
// Run returns nil once e is closed, or ctx.Err(). It returns
// [ErrExecutorBusy] if e is already being driven, and [ErrClosed] if e was
// closed before.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		if !e.runUntilIdle(ctx) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var timeout <-chan time.Time
		if deadline, ok := e.wheel.NextDeadline(); ok {
			timer.Reset(deadline.DurationSince(e.clock.Now()))
			timeout = timer.C
		}

		select {
		case <-e.wakeup:
		case <-timeout:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		timer.Stop()
	}
}

// RunUntilIdle drives e until no task is ready to run and no timer is due
// according to e's clock, then returns.
//
// It returns [ErrExecutorBusy] if e is already being driven, which includes
// calling it from one of e's tasks, and [ErrClosed] if e was closed before.
func (e *Executor) RunUntilIdle() error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	e.runUntilIdle(context.Background())
	return nil
}

func (e *Executor) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.tornDown:
		return ErrClosed
	case e.driving:
		return ErrExecutorBusy
	}
	e.driving = true
	return nil
}

func (e *Executor) release() {
	e.mu.Lock()
	teardown := e.closed && !e.tornDown
	e.mu.Unlock()

	if teardown {
		e.teardown()
	}

	e.mu.Lock()
	e.driving = false
	e.mu.Unlock()
}

// runUntilIdle alternates between firing due timers and running one round
// of ready coroutines, until there is nothing left to do or ctx is done.
// It reports false if e got closed.
func (e *Executor) runUntilIdle(ctx context.Context) bool {
	for ctx.Err() == nil {
		for _, t := range e.wheel.FireDue(e.clock.Now()) {
			t.Value()
		}

		if !e.drain() {
			return false
		}

		if deadline, ok := e.wheel.NextDeadline(); ok && !deadline.After(e.clock.Now()) {
			continue
		}

		e.mu.Lock()
		idle := e.pq.Empty()
		e.mu.Unlock()

		if idle {
			return true
		}
	}
	return true
}

// drain runs one round: at most as many coroutines as were ready when it
// started. Coroutines made ready meanwhile, including ones that yielded,
// wait for the next round. It reports false if e got closed.
func (e *Executor) drain() bool {
	e.mu.Lock()

	for n := e.pq.Len(); n > 0 && !e.closed; n-- {
		co := e.pq.Pop()
		co.flag &^= flagEnqueued
		if co.flag&flagEnded != 0 {
			continue
		}

		e.mu.Unlock()
		e.current.Store(co)
		_, alive := co.next()
		e.current.Store(nil)
		e.mu.Lock()

		if !alive {
			co.flag |= flagEnded
			delete(e.live, co)
		}
	}

	open := !e.closed
	e.mu.Unlock()
	return open
}

// Close discards every task that has not finished: suspended tasks are
// unwound, running their deferred calls, and tasks that never ran are
// dropped. Their handles report [ErrAborted], as do handles of tasks spawned
// afterwards.
//
// If e is being driven, the driver discards the tasks and returns as soon as
// the running task, if any, suspends. Otherwise Close does it before
// returning. Done is closed once it is done.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.driving {
		e.mu.Unlock()
		e.nudge()
		return nil
	}
	e.driving = true
	e.mu.Unlock()

	e.release()
	return nil
}

// Done returns a channel that is closed once e has been closed and every
// task it held has been discarded.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

func (e *Executor) teardown() {
	e.mu.Lock()
	discarded := make([]*coroutine, 0, len(e.live))
	for co := range e.live {
		co.flag |= flagEnded
		discarded = append(discarded, co)
	}
	clear(e.live)
	e.pq = priorityqueue[*coroutine]{}
	e.tornDown = true
	e.mu.Unlock()

	slices.SortFunc(discarded, func(a, b *coroutine) int {
		return compare(a.seq, b.seq)
	})

	for _, co := range discarded {
		co.st.markAborted()
		co.st.cancel()
		e.current.Store(co)
		co.stop()
		e.current.Store(nil)
		if co.t.abandon() {
			logOutcome(e.logger, co.st, aborted, nil)
		}
	}

	e.wheel = Wheel[func()]{}
	e.logger.Info("executor closed", "discarded_tasks", len(discarded))
	close(e.done)
}

// Sleep implements [Runtime].
func (e *Executor) Sleep(ctx context.Context, d time.Duration) error {
	return e.SleepUntil(ctx, e.clock.Now().Add(d))
}

// SleepUntil implements [Runtime].
//
// Outside of e's tasks, SleepUntil spawns a task on e that sleeps and
// awaits it, so some goroutine must be driving e. It returns [ErrClosed]
// if e gets closed meanwhile.
func (e *Executor) SleepUntil(ctx context.Context, deadline Instant) error {
	co := runningCoroutine(ctx)
	if co == nil || co.exec != e {
		h := Go(e, func(ctx context.Context) {
			_ = e.SleepUntil(ctx, deadline)
		}, WithName("sleep"))
		defer h.Abort()
		_, err := h.Await(ctx)
		if errors.Is(err, ErrAborted) {
			return ErrClosed
		}
		return err
	}

	key := e.wheel.Schedule(deadline, co.wake)
	defer e.wheel.Cancel(key)

	return co.await(ctx, func(func()) bool {
		return !e.wheel.Contains(key)
	})
}

// Yield implements [Runtime]. The calling task goes to the back of the
// ready queue among tasks of its weight.
func (e *Executor) Yield(ctx context.Context) error {
	co := runningCoroutine(ctx)
	if co == nil || co.exec != e {
		runtime.Gosched()
		return ctx.Err()
	}
	co.wake()
	co.suspend()
	return nil
}
