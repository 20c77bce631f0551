package async

import (
	"sync"
	"sync/atomic"
	"time"
)

// A Clock is a source of [Instant]s.
//
// Implementations must be safe for concurrent use and must never report an
// Instant before one they have already reported.
type Clock interface {
	Now() Instant
}

var defaultClock = NewMonotonicClock()

// Now returns the current Instant of the process-wide [MonotonicClock].
func Now() Instant {
	return defaultClock.Now()
}

// MonotonicClock is a [Clock] backed by the operating system's monotonic
// clock. Its origin is the moment it was created.
type MonotonicClock struct {
	anchor time.Time
}

// NewMonotonicClock creates a [MonotonicClock] whose origin is now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{anchor: time.Now()}
}

// Now implements [Clock].
func (c *MonotonicClock) Now() Instant {
	return Instant{ns: int64(time.Since(c.anchor))}
}

// HostClock is a [Clock] backed by a host-provided high-resolution
// timestamp, in milliseconds, such as a browser's performance.now().
//
// Readings that are NaN are rejected, and readings that go backwards are
// clamped, so that HostClock keeps the same ordering contract as
// [MonotonicClock]. In either case the last valid reading is reported.
type HostClock struct {
	source func() float64
	mu     sync.Mutex
	last   Instant
}

// NewHostClock creates a [HostClock] reading from source.
func NewHostClock(source func() float64) *HostClock {
	if source == nil {
		panic("async: NewHostClock called with nil source")
	}
	return &HostClock{source: source}
}

// Now implements [Clock].
func (c *HostClock) Now() Instant {
	t, err := InstantFromMillis(c.source())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && t.After(c.last) {
		c.last = t
	}
	return c.last
}

// ManualClock is a [Clock] that only moves when told to.
// It makes timer-driven code deterministic in tests.
type ManualClock struct {
	ns atomic.Int64
}

// NewManualClock creates a [ManualClock] at the zero [Instant].
func NewManualClock() *ManualClock {
	return new(ManualClock)
}

// Now implements [Clock].
func (c *ManualClock) Now() Instant {
	return Instant{ns: c.ns.Load()}
}

// Advance moves c forward by d and returns the new Instant.
// Negative durations are ignored.
func (c *ManualClock) Advance(d time.Duration) Instant {
	if d < 0 {
		d = 0
	}
	return Instant{ns: c.ns.Add(int64(d))}
}

// Set moves c to t. Setting an Instant before the current one is ignored.
func (c *ManualClock) Set(t Instant) {
	for {
		cur := c.ns.Load()
		if t.ns <= cur || c.ns.CompareAndSwap(cur, t.ns) {
			return
		}
	}
}
