package async

import (
	"context"
	"slices"
)

// A WaitGroup waits for a collection of tasks to finish.
//
// Unlike [sync.WaitGroup], waiting on it is a suspension point, so tasks on
// an [*Executor] can wait without blocking each other.
//
// A WaitGroup is safe for concurrent use. The zero value is ready to use.
type WaitGroup struct {
	l waitlist
	n int
}

// Add adds delta, which may be negative, to the counter.
// When the counter becomes zero, every task waiting on wg is woken.
// If the counter becomes negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	wg.l.mu.Lock()
	n := wg.n + delta
	if n < 0 {
		wg.l.mu.Unlock()
		panic("async: negative WaitGroup counter")
	}
	wg.n = n
	wg.l.mu.Unlock()

	if n == 0 && delta != 0 {
		wg.l.notify()
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Go spawns fn on rt and counts it in wg until it finishes, however it
// finishes.
func (wg *WaitGroup) Go(rt Runtime, fn func(ctx context.Context), opts ...SpawnOption) *JoinHandle[struct{}] {
	if fn == nil {
		panic("async: WaitGroup.Go called with nil function")
	}
	wg.Add(1)
	return Go(rt, fn, slices.Concat(opts, []SpawnOption{onFinish(wg.Done)})...)
}

// Wait waits until the counter is zero. It is a suspension point.
func (wg *WaitGroup) Wait(ctx context.Context) error {
	return wg.l.wait(ctx, func() bool { return wg.n == 0 })
}
