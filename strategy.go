package rollbloom

import "fmt"

// ConcurrencyStrategy selects how a Filter serialises concurrent mutation of
// its bit vector. It is fixed when the filter is constructed.
type ConcurrencyStrategy uint8

const (
	// CopyOnWrite publishes an immutable bit vector through an atomic
	// pointer. Writers copy, set and compare-and-swap, retrying on conflict.
	// Readers never block. Favours read-heavy workloads; each effective
	// write allocates a full copy, so pair it with write batching.
	CopyOnWrite ConcurrencyStrategy = iota

	// Synchronized guards the bit vector with a single lock.
	Synchronized

	// Atomic stores the bit vector as independently atomic words and sets
	// bits with a per-word compare-and-swap loop. Reads and writes are both
	// lock-free.
	Atomic
)

// DefaultStrategy is the strategy used when none is configured.
const DefaultStrategy = CopyOnWrite

var strategyNames = [...]string{
	CopyOnWrite:  "copy-on-write",
	Synchronized: "synchronized",
	Atomic:       "atomic",
}

func (s ConcurrencyStrategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("ConcurrencyStrategy(%d)", uint8(s))
}

// Valid reports whether s is one of the defined strategies.
func (s ConcurrencyStrategy) Valid() bool {
	return int(s) < len(strategyNames)
}

// MarshalText implements encoding.TextMarshaler.
func (s ConcurrencyStrategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ConcurrencyStrategy) UnmarshalText(text []byte) error {
	for i, name := range strategyNames {
		if name == string(text) {
			*s = ConcurrencyStrategy(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidStrategy, text)
}

// newBitVector allocates a zeroed bit vector of size bits for strategy s.
func newBitVector(s ConcurrencyStrategy, size uint64) bitVector {
	switch s {
	case Synchronized:
		return newLockedVector(size)
	case Atomic:
		return newAtomicVector(size)
	default:
		return newCOWVector(size)
	}
}
