package async

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Threaded is the [Runtime] that runs every task on its own goroutine.
//
// Tasks run in parallel, so data they share needs the usual synchronization.
// Aborting a task cancels its context; the task stops at its next suspension
// point of this package, or at any point where it honors its context.
type Threaded struct {
	clock  Clock
	logger *slog.Logger

	mu     sync.Mutex
	live   map[*taskState]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewThreaded creates a [Threaded] runtime.
func NewThreaded(opts ...Option) *Threaded {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Threaded{
		clock:  o.clock,
		logger: o.logger,
		live:   make(map[*taskState]struct{}),
	}
}

// Now implements [Clock] with the runtime's clock.
func (r *Threaded) Now() Instant {
	return r.clock.Now()
}

func (r *Threaded) submit(t task) func() {
	st := t.state()
	st.threaded = r
	st.bind(context.Background())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		t.abandon()
		st.cancel()
		r.logger.Debug("task spawned on closed runtime", st.logAttrs()...)
		return nil
	}
	r.live[st] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Debug("task spawned", st.logAttrs()...)

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.live, st)
			r.mu.Unlock()
			st.cancel()
		}()
		kind, pe := t.run()
		logOutcome(r.logger, st, kind, pe)
	}()

	// Canceling the task context is all it takes.
	return nil
}

// Sleep implements [Runtime]. It always waits in real time.
//
// Called from a task running on an [*Executor], it defers to that executor
// so as not to block it.
func (r *Threaded) Sleep(ctx context.Context, d time.Duration) error {
	if co := runningCoroutine(ctx); co != nil {
		return co.exec.Sleep(ctx, d)
	}
	if st := stateFrom(ctx); st != nil && st.co == nil {
		st.checkpoint()
	}
	return sleepTimer(ctx, d)
}

// SleepUntil implements [Runtime]. The time left until deadline is measured
// with the runtime's clock once, then waited in real time.
func (r *Threaded) SleepUntil(ctx context.Context, deadline Instant) error {
	return r.Sleep(ctx, deadline.DurationSince(r.clock.Now()))
}

// Yield implements [Runtime].
func (r *Threaded) Yield(ctx context.Context) error {
	if co := runningCoroutine(ctx); co != nil {
		return co.exec.Yield(ctx)
	}
	st := stateFrom(ctx)
	if st != nil && st.co == nil {
		st.checkpoint()
	}
	runtime.Gosched()
	if st != nil && st.co == nil {
		st.checkpoint()
		return nil
	}
	return ctx.Err()
}

// Close aborts every running task and makes tasks spawned afterwards abort
// at once. It does not wait for the tasks to stop; see Shutdown.
func (r *Threaded) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	live := make([]*taskState, 0, len(r.live))
	for st := range r.live {
		live = append(live, st)
	}
	r.mu.Unlock()

	for _, st := range live {
		st.requestAbort()
	}
	r.logger.Info("threaded runtime closed", "aborted_tasks", len(live))
	return nil
}

// Shutdown closes r and waits for its tasks to return, or for ctx to be
// done, in which case it returns ctx.Err().
//
// Tasks that never reach a suspension point and ignore their context keep
// Shutdown waiting.
func (r *Threaded) Shutdown(ctx context.Context) error {
	_ = r.Close()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
