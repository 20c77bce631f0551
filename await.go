package async

import (
	"context"
	"errors"
	"time"
)

// await suspends or blocks the caller until ready reports true.
//
// ready is given a wake function; when it reports false it must have
// arranged for wake to be called once its answer may have changed.
// Spurious wake-ups are fine, ready is simply asked again.
func await(ctx context.Context, ready func(wake func()) bool) error {
	if co := runningCoroutine(ctx); co != nil {
		return co.await(ctx, ready)
	}

	wakeup := make(chan struct{}, 1)
	wake := func() {
		select {
		case wakeup <- struct{}{}:
		default:
		}
	}

	for {
		if ready(wake) {
			return nil
		}
		if err := blockOn(ctx, wakeup); err != nil {
			return err
		}
	}
}

// AwaitTimeout is like [JoinHandle.Await] but gives up after d, returning
// [ErrTimeout]. The task is not aborted on timeout.
//
// Inside a task on an [*Executor], d is measured with the executor's clock.
func AwaitTimeout[T any](ctx context.Context, h *JoinHandle[T], d time.Duration) (T, error) {
	co := runningCoroutine(ctx)
	if co == nil {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		v, err := h.Await(tctx)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return v, ErrTimeout
		}
		return v, err
	}

	e := co.exec
	key := e.wheel.Schedule(e.clock.Now().Add(d), co.wake)
	defer e.wheel.Cancel(key)

	var (
		o        outcome[T]
		timedOut bool
	)
	err := co.await(ctx, func(wake func()) bool {
		var ok bool
		if o, ok = h.poll(wake); ok {
			return true
		}
		timedOut = !e.wheel.Contains(key)
		return timedOut
	})
	var zero T
	switch {
	case err != nil:
		return zero, err
	case timedOut:
		return zero, ErrTimeout
	}
	return o.result()
}
