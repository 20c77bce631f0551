package async

import "container/heap"

// A TimerKey identifies a timer scheduled in a [Wheel].
// Keys are allocated in increasing order and never reused by a Wheel.
// The zero TimerKey identifies no timer.
type TimerKey uint64

// A Timer is a timer that a [Wheel] fired.
type Timer[V any] struct {
	Key      TimerKey
	Deadline Instant
	Value    V
}

// A Wheel is a queue of pending deadlines, each carrying a value of type V,
// that can be cancelled by key after being scheduled.
//
// The slot table is authoritative. The heap that orders deadlines may hold
// entries of timers that have since been cancelled; those are discarded when
// they reach the top.
//
// A Wheel is not safe for concurrent use. An [*Executor] only touches its
// Wheel from the goroutine driving it.
type Wheel[V any] struct {
	slots map[TimerKey]wheelSlot[V]
	heap  deadlineHeap
	last  TimerKey
}

type wheelSlot[V any] struct {
	deadline Instant
	value    V
}

// Schedule adds a timer that becomes due at deadline and returns its key.
// A deadline in the past is due on the next call to FireDue.
func (w *Wheel[V]) Schedule(deadline Instant, v V) TimerKey {
	if w.slots == nil {
		w.slots = make(map[TimerKey]wheelSlot[V])
	}
	w.last++
	key := w.last
	w.slots[key] = wheelSlot[V]{deadline, v}
	heap.Push(&w.heap, heapEntry{deadline, key})
	return key
}

// Cancel removes the timer identified by key and reports whether it was
// still pending. Cancelling a timer that already fired or was already
// cancelled does nothing.
func (w *Wheel[V]) Cancel(key TimerKey) bool {
	if _, ok := w.slots[key]; !ok {
		return false
	}
	delete(w.slots, key)
	if len(w.heap) > 64 && len(w.heap) > 2*len(w.slots) {
		w.compact()
	}
	return true
}

// Contains reports whether the timer identified by key is still pending.
func (w *Wheel[V]) Contains(key TimerKey) bool {
	_, ok := w.slots[key]
	return ok
}

// Len returns the number of pending timers.
func (w *Wheel[V]) Len() int {
	return len(w.slots)
}

// NextDeadline returns the earliest deadline among pending timers.
func (w *Wheel[V]) NextDeadline() (Instant, bool) {
	for len(w.heap) != 0 {
		top := w.heap[0]
		if _, ok := w.slots[top.key]; ok {
			return top.deadline, true
		}
		heap.Pop(&w.heap)
	}
	return Instant{}, false
}

// FireDue removes and returns every pending timer whose deadline is not
// after now, ordered by deadline. Timers with equal deadlines are returned
// in the order they were scheduled.
func (w *Wheel[V]) FireDue(now Instant) []Timer[V] {
	var fired []Timer[V]
	for len(w.heap) != 0 && !w.heap[0].deadline.After(now) {
		e := heap.Pop(&w.heap).(heapEntry)
		s, ok := w.slots[e.key]
		if !ok {
			continue // cancelled
		}
		delete(w.slots, e.key)
		fired = append(fired, Timer[V]{e.key, s.deadline, s.value})
	}
	return fired
}

// compact drops every cancelled entry from the heap.
func (w *Wheel[V]) compact() {
	live := w.heap[:0]
	for _, e := range w.heap {
		if _, ok := w.slots[e.key]; ok {
			live = append(live, e)
		}
	}
	w.heap = live
	heap.Init(&w.heap)
}

type heapEntry struct {
	deadline Instant
	key      TimerKey
}

// deadlineHeap is a min-heap of (deadline, key) pairs.
type deadlineHeap []heapEntry

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool {
	if c := h[i].deadline.Compare(h[j].deadline); c != 0 {
		return c < 0
	}
	return h[i].key < h[j].key
}

func (h deadlineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) {
	*h = append(*h, x.(heapEntry))
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
