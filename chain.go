package rollbloom

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	// DefaultMaximumBuckets is the default cap on live buckets in a chain.
	DefaultMaximumBuckets = 64

	// chainFillFactor is the share of a bucket's estimated remaining
	// capacity that AddAll writes to it in one slice.
	chainFillFactor = 0.9

	// chainMaxAddSize caps the slice AddAll writes to a bucket in one call.
	chainMaxAddSize = 1000
)

// Chain is a scalable filter made of fixed-capacity buckets drawn from a
// BucketPool. Only the last bucket takes writes; when it saturates a new one
// is appended. Lookups check every live bucket.
//
// When the buckets track expiry, saturated buckets whose elements have all
// expired are released back to the pool, walking back from the tail, before
// a new bucket is acquired. This bounds the memory of rolling filters.
//
// Lookups and the common write path are lock-free. A mutex serialises only
// bucket retirement and acquisition.
type Chain struct {
	pool       BucketPool
	clock      Clock
	maxBuckets int
	log        *zap.Logger

	buckets atomic.Pointer[[]BloomFilter] // Immutable once published

	mu     sync.Mutex  // Guards bucket list mutation
	capped atomic.Bool // The maximum bucket warning was logged for this cap
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithClock sets the clock used to decide whether a bucket has expired.
// The default is the system clock.
func WithClock(c Clock) ChainOption {
	return func(ch *Chain) { ch.clock = c }
}

// WithMaxBuckets caps the number of live buckets. Once reached, writes keep
// going to the saturated tail bucket and the false positive probability
// climbs past its target. The default is DefaultMaximumBuckets.
func WithMaxBuckets(n int) ChainOption {
	return func(ch *Chain) { ch.maxBuckets = n }
}

// WithLogger sets the logger for bucket lifecycle events.
func WithLogger(l *zap.Logger) ChainOption {
	return func(ch *Chain) { ch.log = l }
}

// NewChain returns an empty chain backed by pool. The first bucket is
// acquired on the first write.
func NewChain(pool BucketPool, opts ...ChainOption) (*Chain, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	c := &Chain{
		pool:       pool,
		clock:      SystemClock(),
		maxBuckets: DefaultMaximumBuckets,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxBuckets <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBucketCount, c.maxBuckets)
	}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.buckets.Store(&[]BloomFilter{})
	return c, nil
}

func (c *Chain) live() []BloomFilter {
	return *c.buckets.Load()
}

// lastBucket returns the bucket that should take the next write.
//
// A saturated tail is still returned without locking when the chain is at
// its bucket limit and the tail has not expired, since rollover could
// neither prune it nor append after it.
func (c *Chain) lastBucket() BloomFilter {
	if bs := c.live(); len(bs) > 0 {
		tail := bs[len(bs)-1]
		s := tail.Statistics()
		if !s.Saturated() {
			return tail
		}
		if len(bs) >= c.maxBuckets && !s.Expired(c.clock.Now()) {
			c.warnCapped()
			return tail
		}
	}
	return c.rollover()
}

// isLive reports whether b is in the published bucket list.
func (c *Chain) isLive(b BloomFilter) bool {
	for _, live := range c.live() {
		if live == b {
			return true
		}
	}
	return false
}

func (c *Chain) warnCapped() {
	if c.capped.CompareAndSwap(false, true) {
		c.log.Warn("bloom filter chain reached its maximum number of buckets, false positive rate will exceed target",
			zap.Int("max_buckets", c.maxBuckets))
	}
}

// rollover is the locked slow path of lastBucket. It retires saturated,
// expired buckets from the tail and appends a fresh bucket if needed.
func (c *Chain) rollover() BloomFilter {
	c.mu.Lock()
	defer c.mu.Unlock()

	bs := c.live()
	// Another goroutine may have rolled over while we waited.
	if len(bs) > 0 {
		if tail := bs[len(bs)-1]; !tail.Statistics().Saturated() {
			return tail
		}
	}

	now := c.clock.Now()
	kept := bs
	for len(kept) > 0 {
		s := kept[len(kept)-1].Statistics()
		if !s.Saturated() || !s.Expired(now) {
			break
		}
		kept = kept[:len(kept)-1]
	}

	if retired := bs[len(kept):]; len(retired) > 0 {
		c.publish(kept)
		for i := len(retired) - 1; i >= 0; i-- {
			c.pool.Release(retired[i])
		}
		if len(kept) < c.maxBuckets {
			c.capped.Store(false)
		}
		c.log.Debug("released expired buckets",
			zap.Int("released", len(retired)),
			zap.Int("buckets", len(kept)),
			zap.Time("now", now))
	}

	if len(kept) > 0 {
		tail := kept[len(kept)-1]
		if !tail.Statistics().Saturated() {
			return tail
		}
		if len(kept) >= c.maxBuckets {
			c.warnCapped()
			return tail
		}
	}

	bucket := c.pool.NextAvailable()
	c.publish(kept, bucket)
	c.log.Debug("acquired bucket",
		zap.Int("buckets", len(kept)+1),
		zap.Stringer("statistics", bucket.Statistics()))
	return bucket
}

// publish stores a fresh copy of bs followed by extra as the live bucket
// list. Readers may still be iterating an earlier list, so published arrays
// are never written again, and released buckets must not stay reachable
// through a shared backing array.
func (c *Chain) publish(bs []BloomFilter, extra ...BloomFilter) {
	next := make([]BloomFilter, 0, len(bs)+len(extra))
	next = append(next, bs...)
	next = append(next, extra...)
	c.buckets.Store(&next)
}

// Add writes data to the tail bucket.
//
// The tail may be retired by a concurrent rollover between selection and
// the write. Retired buckets are unpublished before they are released, so
// a write that finds its bucket gone from the live list is repeated on the
// new tail.
func (c *Chain) Add(data []byte) bool {
	for {
		bucket := c.lastBucket()
		changed := bucket.Add(data)
		if c.isLive(bucket) {
			return changed
		}
	}
}

// AddAll writes data in slices, each sized to what the current tail bucket
// can still absorb, acquiring new buckets as needed.
func (c *Chain) AddAll(data [][]byte) bool {
	changed := false
	for len(data) > 0 {
		bucket := c.lastBucket()
		n := c.sliceSize(bucket, len(data))
		wrote := bucket.AddAll(data[:n])
		if !c.isLive(bucket) {
			// Retired mid-write; see Add.
			continue
		}
		changed = changed || wrote
		data = data[n:]
	}
	return changed
}

// sliceSize returns how many of the remaining elements to write to bucket
// in one call: min(remaining capacity * fill factor, max add size), at
// least one and at most left.
func (c *Chain) sliceSize(bucket BloomFilter, left int) int {
	remaining := float64(bucket.Statistics().EstimatedRemainingCapacity) * chainFillFactor
	n := int(min(remaining, chainMaxAddSize))
	return max(min(n, left), 1)
}

// MightContain reports whether any live bucket might contain data.
func (c *Chain) MightContain(data []byte) bool {
	for _, b := range c.live() {
		if b.MightContain(data) {
			return true
		}
	}
	return false
}

// Statistics aggregates the live buckets. Probabilities, capacities and bit
// sizes are summed, the expiry time is the latest across buckets, and the
// remaining capacity is the tail bucket's since only it takes writes.
func (c *Chain) Statistics() Statistics {
	agg := Statistics{ExpiryTime: MinTime}
	bs := c.live()
	for i, b := range bs {
		s := b.Statistics()
		agg.ConfiguredFalsePositiveProbability += s.ConfiguredFalsePositiveProbability
		agg.ExpectedFalsePositiveProbability += s.ExpectedFalsePositiveProbability
		agg.Capacity += s.Capacity
		agg.BitSize += s.BitSize
		if s.ExpiryTime.After(agg.ExpiryTime) {
			agg.ExpiryTime = s.ExpiryTime
		}
		if i == len(bs)-1 {
			agg.EstimatedRemainingCapacity = s.EstimatedRemainingCapacity
		}
	}
	return agg
}

// Buckets returns the number of live buckets.
func (c *Chain) Buckets() int {
	return len(c.live())
}
