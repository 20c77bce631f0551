package async

import "sort"

type lesser[E any] interface {
	less(v E) bool
}

// priorityqueue is a queue sorted by less. Elements that compare equal
// come out in the order they went in.
type priorityqueue[E lesser[E]] struct {
	s    []E
	head int
}

func (q *priorityqueue[E]) Len() int {
	return len(q.s) - q.head
}

func (q *priorityqueue[E]) Empty() bool {
	return q.Len() == 0
}

func (q *priorityqueue[E]) Push(v E) {
	live := q.s[q.head:]
	i := sort.Search(len(live), func(i int) bool {
		return v.less(live[i])
	})

	if q.head != 0 && len(q.s) == cap(q.s) {
		// Reclaim the popped prefix before growing.
		n := copy(q.s, live)
		clear(q.s[n:])
		q.s = q.s[:n]
		q.head = 0
	}

	i += q.head
	var zero E
	q.s = append(q.s, zero)
	copy(q.s[i+1:], q.s[i:])
	q.s[i] = v
}

func (q *priorityqueue[E]) Pop() (v E) {
	var zero E
	v, q.s[q.head] = q.s[q.head], zero
	q.head++
	if q.head == len(q.s) {
		q.s, q.head = q.s[:0], 0
	}
	return v
}
