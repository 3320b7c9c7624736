package rollbloom

import "fmt"

// BloomFilter is the capability shared by every filter in this package:
// fixed-capacity filters, the decorators that wrap them and chains of them.
//
// MightContain never reports false for an element whose Add has returned.
// It reports true for absent elements at roughly the configured false
// positive probability. All methods are safe for concurrent use.
type BloomFilter interface {
	// Add inserts data and reports whether the filter changed.
	Add(data []byte) bool
	// AddAll inserts every element and reports whether the filter changed.
	AddAll(data [][]byte) bool
	// MightContain reports whether data may have been added.
	MightContain(data []byte) bool
	// Statistics returns a snapshot of the filter's current state.
	Statistics() Statistics
}

// maxStackIndexes is the hash count up to which Add and MightContain keep
// their bit positions on the stack.
const maxStackIndexes = 16

// Filter is a fixed-capacity bloom filter over a single bit vector. Its size
// is fixed at construction; adding more than Capacity elements raises the
// false positive probability past the configured target.
type Filter struct {
	capacity uint64
	fpp      float64
	bitSize  uint64
	k        uint32
	strategy ConcurrencyStrategy
	hasher   Hasher
	bits     bitVector
}

type filterOptions struct {
	strategy ConcurrencyStrategy
	hasher   Hasher
}

// FilterOption configures a Filter.
type FilterOption func(*filterOptions)

// WithStrategy selects the concurrency strategy. The default is CopyOnWrite.
func WithStrategy(s ConcurrencyStrategy) FilterOption {
	return func(o *filterOptions) { o.strategy = s }
}

// WithHasher selects the hasher. The default is XXH3Hasher.
func WithHasher(h Hasher) FilterOption {
	return func(o *filterOptions) { o.hasher = h }
}

// NewFilter creates a filter sized for capacity elements at false positive
// probability fpp.
func NewFilter(capacity uint64, fpp float64, opts ...FilterOption) (*Filter, error) {
	o := filterOptions{strategy: DefaultStrategy, hasher: XXH3Hasher{}}
	for _, opt := range opts {
		opt(&o)
	}

	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}
	if !(fpp > 0 && fpp < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidProbability, fpp)
	}
	if !o.strategy.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, uint8(o.strategy))
	}
	if o.hasher == nil {
		return nil, ErrNilHasher
	}

	bitSize := OptimalBitSize(capacity, fpp)
	return &Filter{
		capacity: capacity,
		fpp:      fpp,
		bitSize:  bitSize,
		k:        OptimalHashCount(bitSize, capacity),
		strategy: o.strategy,
		hasher:   o.hasher,
		bits:     newBitVector(o.strategy, bitSize),
	}, nil
}

// indexes appends the bit positions of data to dst.
func (f *Filter) indexes(dst []uint64, data []byte) []uint64 {
	return appendIndexes(dst, f.hasher.Sum128(data), f.k, f.bitSize)
}

// Add sets the k bits of data.
func (f *Filter) Add(data []byte) bool {
	var buf [maxStackIndexes]uint64
	return f.bits.setAll(f.indexes(buf[:0], data))
}

// AddAll sets the bits of every element as a single mutation of the bit
// vector, so a CopyOnWrite filter copies its vector at most once per
// successful attempt.
func (f *Filter) AddAll(data [][]byte) bool {
	if len(data) == 0 {
		return false
	}
	indexes := make([]uint64, 0, len(data)*int(f.k))
	for _, d := range data {
		indexes = f.indexes(indexes, d)
	}
	return f.bits.setAll(indexes)
}

// MightContain reports whether all k bits of data are set.
func (f *Filter) MightContain(data []byte) bool {
	var buf [maxStackIndexes]uint64
	return f.bits.testAll(f.indexes(buf[:0], data))
}

// Statistics returns the filter's sizing and current fill level. A bare
// filter does not track expiry and reports MaxTime, so a chain never
// retires it.
func (f *Filter) Statistics() Statistics {
	expected := ExpectedFalsePositiveProbability(f.bits.ones(), f.bitSize, f.k)
	return Statistics{
		ConfiguredFalsePositiveProbability: f.fpp,
		ExpectedFalsePositiveProbability:   expected,
		Capacity:                           f.capacity,
		BitSize:                            f.bitSize,
		ExpiryTime:                         MaxTime,
		EstimatedRemainingCapacity:         EstimatedRemainingCapacity(f.bitSize, expected, f.capacity),
	}
}

// Capacity returns the number of elements the filter was sized for.
func (f *Filter) Capacity() uint64 {
	return f.capacity
}

// BitSize returns the length of the bit vector.
func (f *Filter) BitSize() uint64 {
	return f.bitSize
}

// HashCount returns the number of hash functions (k).
func (f *Filter) HashCount() uint32 {
	return f.k
}

// Strategy returns the filter's concurrency strategy.
func (f *Filter) Strategy() ConcurrencyStrategy {
	return f.strategy
}

// SetBits returns the number of bits set so far.
func (f *Filter) SetBits() uint64 {
	return f.bits.ones()
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	return float64(f.bits.ones()) / float64(f.bitSize)
}
