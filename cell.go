package async

import (
	"sync"
	"sync/atomic"
)

type outcomeKind uint8

const (
	_ outcomeKind = iota
	completed
	aborted
	panicked
)

func (k outcomeKind) String() string {
	switch k {
	case completed:
		return "completed"
	case aborted:
		return "aborted"
	case panicked:
		return "panicked"
	default:
		return "pending"
	}
}

// outcome is the terminal state of a task.
type outcome[T any] struct {
	kind  outcomeKind
	value T           // completed only
	pe    *PanicError // panicked only
}

func (o outcome[T]) result() (T, error) {
	switch o.kind {
	case completed:
		return o.value, nil
	case panicked:
		var zero T
		return zero, o.pe
	default:
		var zero T
		return zero, ErrAborted
	}
}

// cell is a write-once result slot shared by a task and its handle.
//
// The pending flag, not the presence of a waker, tells whether an outcome
// is waiting to be taken: an outcome may be published before any waker has
// been registered.
type cell[T any] struct {
	mu   sync.Mutex
	slot *outcome[T]

	done    atomic.Bool // set once, never cleared
	pending atomic.Bool // set on publish, cleared by take

	wmu   sync.Mutex
	waker func()
}

// publish stores o and wakes the registered waker.
// Publishing twice means two parties believe they own the outcome; it panics.
func (c *cell[T]) publish(o outcome[T]) {
	if !c.store(o) {
		panic("async: internal error: task outcome published twice")
	}
	c.wake()
}

// publishIfEmpty publishes o unless an outcome has already been published.
func (c *cell[T]) publishIfEmpty(o outcome[T]) bool {
	if !c.store(o) {
		return false
	}
	c.wake()
	return true
}

func (c *cell[T]) store(o outcome[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done.Load() {
		return false
	}
	c.slot = &o
	c.done.Store(true)
	c.pending.Store(true)
	return true
}

func (c *cell[T]) wake() {
	c.wmu.Lock()
	w := c.waker
	c.wmu.Unlock()
	if w != nil {
		w()
	}
}

// take removes and returns the published outcome, if one is pending.
// Only the first take after publish succeeds.
func (c *cell[T]) take() (o outcome[T], ok bool) {
	if !c.pending.CompareAndSwap(true, false) {
		return o, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	o, c.slot = *c.slot, nil
	return o, true
}

// registerWaker replaces the waker to notify on publish.
func (c *cell[T]) registerWaker(w func()) {
	c.wmu.Lock()
	c.waker = w
	c.wmu.Unlock()
}

func (c *cell[T]) finished() bool {
	return c.done.Load()
}
