// Package rollbloom provides thread-safe bloom filters with pluggable
// concurrency strategies, unbounded growth and time-based expiry.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not – if the filter says an element is not present,
// it definitely is not. If it says an element might be present, it could be a
// false positive.
//
// # Architecture
//
// Every filter implements [BloomFilter]. Filters compose by wrapping rather
// than by embedding:
//
//	Filter            fixed-capacity bit vector; the only type touching bits
//	Chain             scalable sequence of buckets drawn from a BucketPool
//	ExpiringFilter    tracks the latest expiry among inserted elements
//	BatchingFilter    buffers single writes and flushes them in bulk
//
// [New] assembles the stack a [Config] asks for.
//
// # Concurrency Strategies
//
// A [Filter] serialises writes to its bit vector with one of three strategies:
//
// [CopyOnWrite] publishes an immutable vector through an atomic pointer.
// Reads never block; every effective write copies the vector. Pair it with
// write batching.
//
// [Synchronized] guards the vector with a lock. Simple, no extra allocation.
//
// [Atomic] stores the vector as atomic words and sets bits with a per-word
// compare-and-swap loop. Reads and writes are both lock-free, and the set-bit
// count is exact under contention. Prefer it when reads and writes are both
// concurrent.
//
// # Hashing
//
// Each element is hashed once to 128 bits by a [Hasher] ([XXH3Hasher] by
// default, or [Murmur3Hasher]); the two 64-bit halves derive k bit positions
// by double hashing, as in "Less Hashing, Same Performance".
//
// # Choosing Parameters
//
// For n expected elements at false positive probability p:
//
//	bits   m = -n * ln(p) / ln(2)²
//	hashes k = round(m/n * ln(2))
//
// Example: 1000 elements at 1% takes 9585 bits and 7 hash functions.
//
// # Scalable and Rolling Filters
//
// A scalable filter starts small and appends buckets as the tail saturates.
// Each bucket's capacity grows by the growth factor and its false positive
// probability shrinks by the scale factor, so the chain's aggregate
// probability stays below the configured target.
//
// A rolling filter is a scalable filter whose elements carry an expiry time
// given by an [ExpiryStrategy]. Saturated buckets whose elements have all
// expired are released back to the pool.
//
//	f, err := rollbloom.New(rollbloom.Config{
//		InitialCapacity:                     10_000,
//		FalsePositiveProbability:            0.01,
//		Strategy:                            rollbloom.Atomic,
//		Scalable:                            true,
//		CapacityGrowthFactor:                2,
//		FalsePositiveProbabilityScaleFactor: 0.8,
//		MaximumBuckets:                      64,
//	})
//
// # References
//
//   - Scalable Bloom Filters: https://gsd.di.uminho.pt/members/cbm/ps/dbloom.pdf
//   - Less Hashing, Same Performance: https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf
package rollbloom
