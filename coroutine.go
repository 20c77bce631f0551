package async

import (
	"context"
	"iter"
)

const (
	flagEnqueued = 1 << iota
	flagEnded
)

// A coroutine runs one task on an [Executor].
//
// It is stackful: the task is an ordinary Go function running on its own
// goroutine, but control only ever passes to it through iter.Pull, so
// exactly one coroutine of an Executor runs at any time and it runs until
// it suspends itself.
type coroutine struct {
	exec *Executor
	t    task
	st   *taskState
	seq  uint64
	flag uint8 // guarded by exec.mu

	next  func() (struct{}, bool)
	stop  func()
	yield func(struct{}) bool
	torn  bool // yield has reported that the coroutine is being discarded
}

func (e *Executor) newCoroutine(t task, seq uint64) *coroutine {
	co := &coroutine{exec: e, t: t, st: t.state(), seq: seq}
	co.st.co = co
	co.next, co.stop = iter.Pull(func(yield func(struct{}) bool) {
		co.yield = yield
		kind, pe := co.t.run()
		co.st.cancel()
		logOutcome(e.logger, co.st, kind, pe)
	})
	return co
}

func (co *coroutine) less(other *coroutine) bool {
	return co.st.weight > other.st.weight
}

// wake makes co ready to run again. It is safe for concurrent use and
// may be called any number of times.
func (co *coroutine) wake() {
	co.exec.resume(co)
}

// suspend passes control back to the driving goroutine until co is woken.
// It unwinds co if co has been aborted or discarded meanwhile.
func (co *coroutine) suspend() {
	co.st.checkpoint()
	if co.torn || !co.yield(struct{}{}) {
		co.torn = true
		panic(unwind{})
	}
	co.st.checkpoint()
}

// await suspends co until ready reports true or ctx is done.
func (co *coroutine) await(ctx context.Context, ready func(wake func()) bool) error {
	wake := co.wake
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, wake)
		defer stop()
	}
	for {
		if ready(wake) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			co.st.checkpoint()
			return err
		}
		co.suspend()
	}
}

// runningCoroutine returns the coroutine ctx belongs to if that coroutine
// is the one currently running on its executor.
func runningCoroutine(ctx context.Context) *coroutine {
	st := stateFrom(ctx)
	if st == nil || st.co == nil {
		return nil
	}
	if co := st.co; co.exec.current.Load() == co {
		return co
	}
	return nil
}
