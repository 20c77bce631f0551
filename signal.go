package async

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// waitlist lets tasks wait until a condition guarded by mu holds.
// Code changing that condition must hold mu and call notify afterwards.
type waitlist struct {
	mu        sync.Mutex
	listeners map[uint64]func()
	last      uint64
}

// wait suspends the caller until cond, evaluated with mu held, reports true.
// It is a suspension point.
func (l *waitlist) wait(ctx context.Context, cond func() bool) error {
	l.mu.Lock()
	l.last++
	id := l.last
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}()

	return await(ctx, func(wake func()) bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cond() {
			return true
		}
		if l.listeners == nil {
			l.listeners = make(map[uint64]func())
		}
		l.listeners[id] = wake
		return false
	})
}

// notify wakes every waiter, in the order they started waiting, so that
// it re-evaluates its condition.
func (l *waitlist) notify() {
	l.mu.Lock()
	ids := slices.Sorted(maps.Keys(l.listeners))
	wakers := make([]func(), len(ids))
	for i, id := range ids {
		wakers[i] = l.listeners[id]
	}
	l.mu.Unlock()

	for _, wake := range wakers {
		wake()
	}
}

// Signal is a broadcast event.
//
// Calling Notify wakes every task that is waiting on the Signal. Tasks that
// start waiting afterwards wait for the next Notify.
//
// A Signal is safe for concurrent use and may be shared by tasks of any
// number of runtimes. The zero value is ready to use.
type Signal struct {
	l   waitlist
	gen uint64
}

// Notify wakes every task waiting on s.
func (s *Signal) Notify() {
	s.l.mu.Lock()
	s.gen++
	s.l.mu.Unlock()
	s.l.notify()
}

// Wait waits for the next call to Notify. It is a suspension point.
func (s *Signal) Wait(ctx context.Context) error {
	s.l.mu.Lock()
	gen := s.gen
	s.l.mu.Unlock()

	return s.l.wait(ctx, func() bool { return s.gen != gen })
}
