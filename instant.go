package async

import (
	"math"
	"time"
)

// An Instant is a point on a monotonic timeline.
//
// Instants produced by the same [Clock] are totally ordered and can be
// compared with ==. Instants from different clocks share the same
// representation but not the same origin; comparing them is meaningless.
//
// The zero Instant is the origin of a clock's timeline.
type Instant struct {
	ns int64 // nanoseconds since the clock's origin
}

// InstantFromMillis converts a host high-resolution timestamp, expressed in
// milliseconds since the host's time origin, into an [Instant].
//
// It returns [ErrNaNInstant] if ms is NaN. Infinite values saturate.
func InstantFromMillis(ms float64) (Instant, error) {
	if math.IsNaN(ms) {
		return Instant{}, ErrNaNInstant
	}
	ns := ms * 1e6
	switch {
	case ns >= math.MaxInt64:
		return Instant{ns: math.MaxInt64}, nil
	case ns <= math.MinInt64:
		return Instant{ns: math.MinInt64}, nil
	}
	return Instant{ns: int64(ns)}, nil
}

// DurationSince returns the time elapsed from earlier to t.
//
// The result is never negative: if earlier is after t, which host clocks
// with coarse or jittery resolution occasionally report, DurationSince
// returns 0.
func (t Instant) DurationSince(earlier Instant) time.Duration {
	if t.ns <= earlier.ns {
		return 0
	}
	d := t.ns - earlier.ns
	if d < 0 { // overflow
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Add returns t+d.
func (t Instant) Add(d time.Duration) Instant {
	ns := t.ns + int64(d)
	switch {
	case d > 0 && ns < t.ns:
		ns = math.MaxInt64
	case d < 0 && ns > t.ns:
		ns = math.MinInt64
	}
	return Instant{ns: ns}
}

// Before reports whether t is before u.
func (t Instant) Before(u Instant) bool {
	return t.ns < u.ns
}

// After reports whether t is after u.
func (t Instant) After(u Instant) bool {
	return t.ns > u.ns
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to,
// or after u.
func (t Instant) Compare(u Instant) int {
	return compare(t.ns, u.ns)
}

// String formats t as the offset from its clock's origin.
func (t Instant) String() string {
	if t.ns < 0 {
		return time.Duration(t.ns).String()
	}
	return "+" + time.Duration(t.ns).String()
}

func compare[Int intType](x, y Int) int {
	if x < y {
		return -1
	}
	if x > y {
		return +1
	}
	return 0
}

type intType interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}
