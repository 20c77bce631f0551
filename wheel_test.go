package async_test

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/async"
)

func ms(n int) async.Instant {
	return async.Instant{}.Add(time.Duration(n) * time.Millisecond)
}

func values[V any](timers []async.Timer[V]) []V {
	vs := make([]V, len(timers))
	for i, t := range timers {
		vs[i] = t.Value
	}
	return vs
}

func TestWheelCancelBeforeFire(t *testing.T) {
	var w async.Wheel[string]
	now := ms(0)

	k1 := w.Schedule(now.Add(50*time.Millisecond), "first")
	k2 := w.Schedule(now.Add(10*time.Millisecond), "second")
	require.True(t, w.Cancel(k2))

	fired := w.FireDue(now.Add(60 * time.Millisecond))
	require.Len(t, fired, 1)
	assert.Equal(t, k1, fired[0].Key)
	assert.Equal(t, "first", fired[0].Value)
	assert.Equal(t, ms(50), fired[0].Deadline)
	assert.Zero(t, w.Len())
}

func TestWheelKeys(t *testing.T) {
	var w async.Wheel[int]
	k1 := w.Schedule(ms(5), 1)
	k2 := w.Schedule(ms(5), 2)
	assert.Equal(t, async.TimerKey(1), k1)
	assert.Equal(t, async.TimerKey(2), k2)

	w.FireDue(ms(5))
	assert.Equal(t, async.TimerKey(3), w.Schedule(ms(1), 3), "keys are never reused")
}

func TestWheelFireOrder(t *testing.T) {
	var w async.Wheel[string]
	w.Schedule(ms(30), "c")
	w.Schedule(ms(10), "a1")
	w.Schedule(ms(20), "b")
	w.Schedule(ms(10), "a2")
	w.Schedule(ms(40), "late")

	assert.Empty(t, w.FireDue(ms(9)))
	assert.Equal(t, []string{"a1", "a2", "b", "c"}, values(w.FireDue(ms(30))))
	assert.Empty(t, w.FireDue(ms(30)), "each timer fires once")
	assert.Equal(t, 1, w.Len())
}

func TestWheelPastDeadline(t *testing.T) {
	var w async.Wheel[int]
	w.Schedule(ms(-100), 1)
	assert.Equal(t, []int{1}, values(w.FireDue(ms(0))))
}

func TestWheelCancel(t *testing.T) {
	var w async.Wheel[int]
	k := w.Schedule(ms(10), 1)

	assert.True(t, w.Contains(k))
	assert.True(t, w.Cancel(k))
	assert.False(t, w.Contains(k))
	assert.False(t, w.Cancel(k), "second cancel is a no-op")
	assert.False(t, w.Cancel(12345), "unknown keys are ignored")
	assert.False(t, w.Cancel(0))

	fired := w.Schedule(ms(10), 2)
	w.FireDue(ms(10))
	assert.False(t, w.Cancel(fired), "cancelling a fired timer is a no-op")
}

func TestWheelNextDeadline(t *testing.T) {
	var w async.Wheel[int]
	_, ok := w.NextDeadline()
	assert.False(t, ok)

	early := w.Schedule(ms(10), 1)
	w.Schedule(ms(20), 2)
	w.Cancel(early)

	d, ok := w.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, ms(20), d, "cancelled timers are skipped")

	w.FireDue(ms(20))
	_, ok = w.NextDeadline()
	assert.False(t, ok)
}

func TestWheelCompaction(t *testing.T) {
	var w async.Wheel[int]
	var keys []async.TimerKey
	for i := range 500 {
		keys = append(keys, w.Schedule(ms(i), i))
	}
	for _, k := range keys[:490] {
		require.True(t, w.Cancel(k))
	}
	assert.Equal(t, 10, w.Len())

	d, ok := w.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, ms(490), d)
	assert.Equal(t, []int{490, 491, 492, 493, 494, 495, 496, 497, 498, 499}, values(w.FireDue(ms(1000))))
}

// TestWheelRandomized checks the wheel against a brute-force model.
func TestWheelRandomized(t *testing.T) {
	type entry struct {
		key      async.TimerKey
		deadline async.Instant
	}

	r := rand.New(rand.NewPCG(1, 2))
	var w async.Wheel[async.TimerKey]
	var model []entry
	now := 0

	for range 2000 {
		switch op := r.IntN(10); {
		case op < 5:
			d := ms(now + r.IntN(100) - 10)
			k := w.Schedule(d, 0)
			model = append(model, entry{k, d})
		case op < 8 && len(model) != 0:
			i := r.IntN(len(model))
			require.True(t, w.Cancel(model[i].key))
			model = slices.Delete(model, i, i+1)
		default:
			now += r.IntN(30)
			want := []async.TimerKey{}
			model = slices.DeleteFunc(model, func(e entry) bool {
				if e.deadline.After(ms(now)) {
					return false
				}
				want = append(want, e.key)
				return true
			})
			fired := w.FireDue(ms(now))
			got := make([]async.TimerKey, len(fired))
			for i, tm := range fired {
				got[i] = tm.Key
			}
			slices.Sort(got)
			assert.Equal(t, want, got)
			assert.True(t, slices.IsSortedFunc(fired, func(a, b async.Timer[async.TimerKey]) int {
				if c := a.Deadline.Compare(b.Deadline); c != 0 {
					return c
				}
				return int(a.Key) - int(b.Key)
			}))
		}
		require.Equal(t, len(model), w.Len())
	}
}
