package rollbloom

import "errors"

var (
	// ErrInvalidCapacity is returned when a filter or bucket capacity is zero.
	ErrInvalidCapacity = errors.New("rollbloom: capacity must be greater than zero")

	// ErrInvalidProbability is returned when a false positive probability is
	// not strictly between 0 and 1.
	ErrInvalidProbability = errors.New("rollbloom: false positive probability must be in (0, 1)")

	// ErrInvalidGrowthFactor is returned when the capacity growth factor is below 1.
	ErrInvalidGrowthFactor = errors.New("rollbloom: capacity growth factor must be at least 1")

	// ErrInvalidScaleFactor is returned when the false positive probability
	// scale factor is not strictly between 0 and 1.
	ErrInvalidScaleFactor = errors.New("rollbloom: false positive probability scale factor must be in (0, 1)")

	// ErrInvalidBatchSize is returned for a negative write batch size, or a
	// non-positive one passed directly to NewBatching.
	ErrInvalidBatchSize = errors.New("rollbloom: invalid write batch size")

	// ErrInvalidBucketCount is returned when the maximum number of buckets is not positive.
	ErrInvalidBucketCount = errors.New("rollbloom: maximum number of buckets must be greater than zero")

	// ErrInvalidStrategy is returned for an unknown concurrency strategy.
	ErrInvalidStrategy = errors.New("rollbloom: unknown concurrency strategy")

	// ErrNilDelegate is returned when a decorator is constructed without a filter to wrap.
	ErrNilDelegate = errors.New("rollbloom: delegate filter is nil")

	// ErrNilExpiryStrategy is returned when an expiring filter has no expiry strategy.
	ErrNilExpiryStrategy = errors.New("rollbloom: expiry strategy is nil")

	// ErrNilPool is returned when a chain is constructed without a bucket pool.
	ErrNilPool = errors.New("rollbloom: bucket pool is nil")

	// ErrNilHasher is returned when a filter is configured with a nil hasher.
	ErrNilHasher = errors.New("rollbloom: hasher is nil")
)
