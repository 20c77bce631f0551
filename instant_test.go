package async_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/async"
)

func TestInstantDurationSince(t *testing.T) {
	origin := async.Instant{}
	later := origin.Add(1500 * time.Millisecond)

	assert.Equal(t, 1500*time.Millisecond, later.DurationSince(origin))
	assert.Zero(t, origin.DurationSince(later), "clamped when earlier is after t")
	assert.Zero(t, later.DurationSince(later))
}

func TestInstantOrdering(t *testing.T) {
	a := async.Instant{}.Add(time.Second)
	b := a.Add(time.Millisecond)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, +1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a.Add(0)))
	assert.True(t, a == a.Add(0))
}

func TestInstantAddSaturates(t *testing.T) {
	hi := async.Instant{}.Add(math.MaxInt64)
	assert.Equal(t, hi, hi.Add(time.Hour))

	lo := async.Instant{}.Add(math.MinInt64)
	assert.Equal(t, lo, lo.Add(-time.Hour))

	assert.Equal(t, time.Duration(math.MaxInt64), hi.DurationSince(lo))
}

func TestInstantString(t *testing.T) {
	assert.Equal(t, "+1.5s", async.Instant{}.Add(1500*time.Millisecond).String())
	assert.Equal(t, "-2ms", async.Instant{}.Add(-2*time.Millisecond).String())
}

func TestInstantFromMillis(t *testing.T) {
	got, err := async.InstantFromMillis(1.5)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Microsecond, got.DurationSince(async.Instant{}))

	_, err = async.InstantFromMillis(math.NaN())
	assert.ErrorIs(t, err, async.ErrNaNInstant)

	inf, err := async.InstantFromMillis(math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, async.Instant{}.Add(math.MaxInt64), inf)
}

func TestMonotonicClock(t *testing.T) {
	c := async.NewMonotonicClock()
	a := c.Now()
	time.Sleep(time.Millisecond)
	b := c.Now()

	assert.False(t, b.Before(a))
	assert.GreaterOrEqual(t, b.DurationSince(a), time.Millisecond)
	assert.False(t, async.Now().Before(async.Now().Add(-time.Hour)))
}

func TestHostClock(t *testing.T) {
	readings := []float64{10, math.NaN(), 5, 20}
	var i int
	c := async.NewHostClock(func() float64 {
		ms := readings[i]
		i++
		return ms
	})

	origin := async.Instant{}
	assert.Equal(t, 10*time.Millisecond, c.Now().DurationSince(origin))
	assert.Equal(t, 10*time.Millisecond, c.Now().DurationSince(origin), "NaN keeps the last valid reading")
	assert.Equal(t, 10*time.Millisecond, c.Now().DurationSince(origin), "never goes backwards")
	assert.Equal(t, 20*time.Millisecond, c.Now().DurationSince(origin))

	assert.Panics(t, func() { async.NewHostClock(nil) })
}

func TestManualClock(t *testing.T) {
	c := async.NewManualClock()
	assert.Equal(t, async.Instant{}, c.Now())

	assert.Equal(t, async.Instant{}.Add(time.Second), c.Advance(time.Second))
	c.Advance(-time.Hour)
	assert.Equal(t, async.Instant{}.Add(time.Second), c.Now(), "negative durations are ignored")

	c.Set(async.Instant{}.Add(5 * time.Second))
	assert.Equal(t, async.Instant{}.Add(5*time.Second), c.Now())
	c.Set(async.Instant{})
	assert.Equal(t, async.Instant{}.Add(5*time.Second), c.Now(), "Set never moves backwards")
}

func TestManualClockConcurrent(t *testing.T) {
	c := async.NewManualClock()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800*time.Millisecond, c.Now().DurationSince(async.Instant{}))
}
