package rollbloom

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// MaxBucketCapacity is the ceiling on the capacity of a pool bucket. It
// keeps the sizing arithmetic in range: with the default growth factor the
// last of 64 buckets would otherwise need 2^63 times the initial capacity.
//
// It does not make such a bucket allocatable. A bucket's bit vector takes
// about 9.6 bits per element at 1%, so a level near the ceiling needs
// petabytes. Each new level allocates roughly CapacityGrowthFactor times the
// memory of the one before it, so large growth factors exhaust memory after
// few rollovers.
const MaxBucketCapacity = 1 << 48

// BucketPool supplies fresh buckets to a Chain and takes back retired ones.
//
// A bucket handed to Release belongs to the pool; the chain must not read or
// write it afterwards. Chains track buckets by identity, so NextAvailable
// should return a distinct pointer for every bucket.
type BucketPool interface {
	// NextAvailable returns a bucket ready to take writes.
	NextAvailable() BloomFilter
	// Release returns a retired bucket to the pool.
	Release(bucket BloomFilter)
}

// PoolConfig sizes the buckets of a ScalingPool.
type PoolConfig struct {
	// InitialCapacity is the capacity of the first bucket.
	InitialCapacity uint64
	// FalsePositiveProbability bounds the sum of per-bucket probabilities.
	FalsePositiveProbability float64
	// CapacityGrowthFactor multiplies capacity from one bucket to the next.
	CapacityGrowthFactor float64
	// ScaleFactor multiplies the false positive probability from one bucket
	// to the next.
	ScaleFactor float64
	// MaximumBuckets caps bucket growth. Buckets past the cap are sized like
	// the last one.
	MaximumBuckets int
	// Strategy is the concurrency strategy of every bucket.
	Strategy ConcurrencyStrategy
	// Hasher hashes elements for every bucket. Nil means XXH3Hasher.
	Hasher Hasher
	// Expiry is the expiry strategy tracked by every bucket. Nil means
	// NeverExpire.
	Expiry ExpiryStrategy
}

// ScalingPool creates geometrically growing buckets.
//
// The bucket at level i (the number of buckets currently handed out) has
// capacity InitialCapacity * growth^i and false positive probability
// p * (1 - scale) * scale^i, so the probabilities of any number of live
// buckets sum to less than p. Released buckets are discarded: bits are never
// cleared, so a used bucket cannot be handed out again.
type ScalingPool struct {
	cfg      PoolConfig
	baseFPP  float64
	mu       sync.Mutex
	level    int
	acquired atomic.Uint64
	released atomic.Uint64
}

// NewScalingPool validates cfg and returns a pool for it.
func NewScalingPool(cfg PoolConfig) (*ScalingPool, error) {
	if cfg.InitialCapacity == 0 {
		return nil, ErrInvalidCapacity
	}
	if !(cfg.FalsePositiveProbability > 0 && cfg.FalsePositiveProbability < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidProbability, cfg.FalsePositiveProbability)
	}
	if !(cfg.CapacityGrowthFactor >= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidGrowthFactor, cfg.CapacityGrowthFactor)
	}
	if !(cfg.ScaleFactor > 0 && cfg.ScaleFactor < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidScaleFactor, cfg.ScaleFactor)
	}
	if cfg.MaximumBuckets <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBucketCount, cfg.MaximumBuckets)
	}
	if !cfg.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, uint8(cfg.Strategy))
	}
	if cfg.Hasher == nil {
		cfg.Hasher = XXH3Hasher{}
	}
	if cfg.Expiry == nil {
		cfg.Expiry = NeverExpire
	}

	p := &ScalingPool{
		cfg:     cfg,
		baseFPP: cfg.FalsePositiveProbability * (1 - cfg.ScaleFactor),
	}

	// The smallest probability must still be representable.
	if _, fpp := p.BucketSize(cfg.MaximumBuckets - 1); !(fpp > 0) {
		return nil, fmt.Errorf("%w: bucket %d probability underflows", ErrInvalidScaleFactor, cfg.MaximumBuckets)
	}
	return p, nil
}

// BucketSize returns the capacity and false positive probability of the
// bucket at level i. Capacity never exceeds MaxBucketCapacity.
func (p *ScalingPool) BucketSize(i int) (capacity uint64, fpp float64) {
	i = min(i, p.cfg.MaximumBuckets-1)
	c := math.Ceil(float64(p.cfg.InitialCapacity) * math.Pow(p.cfg.CapacityGrowthFactor, float64(i)))
	return uint64(min(c, MaxBucketCapacity)), p.baseFPP * math.Pow(p.cfg.ScaleFactor, float64(i))
}

// NextAvailable creates the bucket for the current level and moves up a level.
func (p *ScalingPool) NextAvailable() BloomFilter {
	p.mu.Lock()
	i := p.level
	p.level++
	p.mu.Unlock()

	capacity, fpp := p.BucketSize(i)
	f, err := NewFilter(capacity, fpp, WithStrategy(p.cfg.Strategy), WithHasher(p.cfg.Hasher))
	if err != nil {
		// Sizes were validated by NewScalingPool.
		panic(fmt.Sprintf("rollbloom: bucket %d: %v", i, err))
	}
	bucket, err := NewExpiring(f, p.cfg.Expiry)
	if err != nil {
		panic(fmt.Sprintf("rollbloom: bucket %d: %v", i, err))
	}

	p.acquired.Add(1)
	return bucket
}

// Release discards bucket and moves down a level.
func (p *ScalingPool) Release(BloomFilter) {
	p.mu.Lock()
	p.level = max(p.level-1, 0)
	p.mu.Unlock()

	p.released.Add(1)
}

// Acquired returns the number of buckets handed out so far.
func (p *ScalingPool) Acquired() uint64 {
	return p.acquired.Load()
}

// Released returns the number of buckets returned so far.
func (p *ScalingPool) Released() uint64 {
	return p.released.Load()
}
