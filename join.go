package async

import "context"

// WaitAll awaits every handle in order and returns their values.
// It stops at the first error; values of handles before it are filled in.
func WaitAll[T any](ctx context.Context, handles ...*JoinHandle[T]) ([]T, error) {
	values := make([]T, len(handles))
	for i, h := range handles {
		v, err := h.Await(ctx)
		values[i] = v
		if err != nil {
			return values, err
		}
	}
	return values, nil
}

// WaitAny awaits until any of the handles finishes and returns its index and
// result. When several have finished, the one with the lowest index wins.
//
// WaitAny registers itself as the awaiter of every handle; see [JoinHandle].
func WaitAny[T any](ctx context.Context, handles ...*JoinHandle[T]) (int, T, error) {
	var zero T
	if len(handles) == 0 {
		return -1, zero, ErrNoHandles
	}

	index := -1
	var o outcome[T]
	err := await(ctx, func(wake func()) bool {
		for i, h := range handles {
			if out, ok := h.poll(wake); ok {
				index, o = i, out
				return true
			}
		}
		return false
	})
	if err != nil {
		return -1, zero, err
	}
	v, err := o.result()
	return index, v, err
}
