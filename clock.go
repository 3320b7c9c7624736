package rollbloom

import (
	"math"
	"time"
)

var (
	// MinTime is the earliest representable expiry time. Filters that have
	// seen no element report it as their expiry time.
	MinTime = time.Unix(0, math.MinInt64)

	// MaxTime is the latest representable expiry time. Elements that never
	// expire report it.
	MaxTime = time.Unix(0, math.MaxInt64)
)

// Clock reports the current time. It is consulted only when pruning expired
// buckets, and should not move backwards.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts an ordinary function to the Clock interface.
type ClockFunc func() time.Time

// Now calls c().
func (c ClockFunc) Now() time.Time {
	return c()
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// ExpiryStrategy maps an element to the time after which it is no longer
// considered a member. It must be a pure function of the element: rolling
// filters re-evaluate it on lookup, so a strategy that reads the clock would
// reject elements added a moment earlier.
type ExpiryStrategy func(data []byte) time.Time

// NeverExpire is the expiry strategy of non-rolling filters.
func NeverExpire([]byte) time.Time {
	return MaxTime
}

// toNanos converts t to Unix nanoseconds, saturating at the int64 range.
func toNanos(t time.Time) int64 {
	if !t.After(MinTime) {
		return math.MinInt64
	}
	if !t.Before(MaxTime) {
		return math.MaxInt64
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n)
}
