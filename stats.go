package rollbloom

import (
	"fmt"
	"time"
)

// Statistics is a point-in-time snapshot of a filter's sizing and fill level.
type Statistics struct {
	// ConfiguredFalsePositiveProbability is the design target.
	ConfiguredFalsePositiveProbability float64
	// ExpectedFalsePositiveProbability is derived from the bits set so far.
	ExpectedFalsePositiveProbability float64
	// Capacity is the number of elements the filter was sized for.
	Capacity uint64
	// BitSize is the length of the bit vector.
	BitSize uint64
	// ExpiryTime is the latest expiry among inserted elements. It is MinTime
	// for an empty expiring filter and MaxTime for filters that do not track
	// expiry.
	ExpiryTime time.Time
	// EstimatedRemainingCapacity is how many more distinct elements fit
	// before the filter reaches Capacity. Negative when over-filled.
	EstimatedRemainingCapacity int64
}

// Saturated reports whether the expected false positive probability has
// reached the configured target. A saturated filter should not take more
// writes.
func (s Statistics) Saturated() bool {
	return s.ExpectedFalsePositiveProbability >= s.ConfiguredFalsePositiveProbability
}

// Expired reports whether every element tracked by the snapshot expired
// before now.
func (s Statistics) Expired(now time.Time) bool {
	return s.ExpiryTime.Before(now)
}

// Equal reports whether s and o describe the same state. It compares
// ExpiryTime by instant rather than by representation.
func (s Statistics) Equal(o Statistics) bool {
	return s.ConfiguredFalsePositiveProbability == o.ConfiguredFalsePositiveProbability &&
		s.ExpectedFalsePositiveProbability == o.ExpectedFalsePositiveProbability &&
		s.Capacity == o.Capacity &&
		s.BitSize == o.BitSize &&
		s.ExpiryTime.Equal(o.ExpiryTime) &&
		s.EstimatedRemainingCapacity == o.EstimatedRemainingCapacity
}

func (s Statistics) String() string {
	return fmt.Sprintf("fpp=%.6g/%.6g capacity=%d bits=%d remaining=%d expiry=%s",
		s.ExpectedFalsePositiveProbability, s.ConfiguredFalsePositiveProbability,
		s.Capacity, s.BitSize, s.EstimatedRemainingCapacity, s.ExpiryTime.UTC().Format(time.RFC3339Nano))
}
