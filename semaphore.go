package async

import (
	"context"
	"slices"
)

// Semaphore bounds access to a resource. Callers request access with a
// weight and are served in the order they asked.
//
// Acquiring is a suspension point, so tasks on an [*Executor] can wait for a
// Semaphore without blocking each other. Note that a Semaphore does not
// provide backpressure for spawning a lot of tasks.
//
// A Semaphore is safe for concurrent use and may be shared by tasks of any
// number of runtimes.
type Semaphore struct {
	l       waitlist
	size    int64
	cur     int64
	waiters []*semaphoreWaiter
}

type semaphoreWaiter struct {
	n       int64
	granted bool
}

// NewSemaphore creates a weighted semaphore with the given maximum combined
// weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// Acquire waits until a weight of n is acquired from s.
//
// On failure, which only happens when ctx is done, nothing is acquired.
// A request for more than the size of s waits until ctx is done.
func (s *Semaphore) Acquire(ctx context.Context, n int64) error {
	if n < 0 {
		panic("async: Semaphore acquired with negative weight")
	}

	s.l.mu.Lock()
	if n > s.size {
		s.l.mu.Unlock()
		return s.l.wait(ctx, func() bool { return false })
	}
	if s.size-s.cur >= n && len(s.waiters) == 0 {
		s.cur += n
		s.l.mu.Unlock()
		return nil
	}
	w := &semaphoreWaiter{n: n}
	s.waiters = append(s.waiters, w)
	s.l.mu.Unlock()

	acquired := false
	defer func() {
		if acquired {
			return
		}
		// Given up, possibly while being unwound.
		s.l.mu.Lock()
		if w.granted {
			s.cur -= w.n
		} else if i := slices.Index(s.waiters, w); i != -1 {
			s.waiters = slices.Delete(s.waiters, i, i+1)
		}
		s.grant()
		s.l.mu.Unlock()
		s.l.notify()
	}()

	err := s.l.wait(ctx, func() bool { return w.granted })
	acquired = err == nil
	return err
}

// TryAcquire acquires a weight of n from s without waiting.
// It reports whether it succeeded. It never succeeds while others wait.
func (s *Semaphore) TryAcquire(n int64) bool {
	if n < 0 {
		panic("async: Semaphore acquired with negative weight")
	}
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	if s.size-s.cur >= n && len(s.waiters) == 0 {
		s.cur += n
		return true
	}
	return false
}

// Release releases a weight of n back to s.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("async: Semaphore released with negative weight")
	}
	s.l.mu.Lock()
	if s.cur < n {
		s.l.mu.Unlock()
		panic("async: Semaphore released more than held")
	}
	s.cur -= n
	s.grant()
	s.l.mu.Unlock()
	s.l.notify()
}

// grant hands the free weight to waiters in order. s.l.mu must be held.
func (s *Semaphore) grant() {
	i := 0
	for ; i < len(s.waiters); i++ {
		w := s.waiters[i]
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		w.granted = true
	}
	s.waiters = slices.Delete(s.waiters, 0, i)
}
