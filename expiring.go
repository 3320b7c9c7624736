package rollbloom

import (
	"math"
	"sync/atomic"
	"time"
)

// ExpiringFilter tracks the latest expiry time among the elements added to
// the filter it wraps.
//
// MightContain rejects an element whose expiry lies after that high-water
// mark without consulting the delegate: such an element is too new to have
// been added. This lets one filter serve successive windows without a reset.
type ExpiringFilter struct {
	delegate BloomFilter
	expiry   ExpiryStrategy
	latest   atomic.Int64 // Unix nanoseconds; only ever raised
}

// NewExpiring wraps delegate with expiry tracking.
func NewExpiring(delegate BloomFilter, expiry ExpiryStrategy) (*ExpiringFilter, error) {
	if delegate == nil {
		return nil, ErrNilDelegate
	}
	if expiry == nil {
		return nil, ErrNilExpiryStrategy
	}
	f := &ExpiringFilter{delegate: delegate, expiry: expiry}
	f.latest.Store(math.MinInt64)
	return f, nil
}

// raise lifts the latest expiry to at least n.
func (f *ExpiringFilter) raise(n int64) {
	for {
		cur := f.latest.Load()
		if n <= cur || f.latest.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Add inserts data into the delegate and then raises the latest expiry.
func (f *ExpiringFilter) Add(data []byte) bool {
	changed := f.delegate.Add(data)
	f.raise(toNanos(f.expiry(data)))
	return changed
}

// AddAll inserts every element and raises the latest expiry to the maximum
// among them.
func (f *ExpiringFilter) AddAll(data [][]byte) bool {
	if len(data) == 0 {
		return false
	}
	changed := f.delegate.AddAll(data)

	latest := int64(math.MinInt64)
	for _, d := range data {
		latest = max(latest, toNanos(f.expiry(d)))
	}
	f.raise(latest)
	return changed
}

// MightContain reports false for elements expiring after the latest expiry
// seen, and otherwise defers to the delegate.
func (f *ExpiringFilter) MightContain(data []byte) bool {
	if toNanos(f.expiry(data)) > f.latest.Load() {
		return false
	}
	return f.delegate.MightContain(data)
}

// Statistics returns the delegate's statistics with ExpiryTime replaced by
// the latest expiry seen.
func (f *ExpiringFilter) Statistics() Statistics {
	s := f.delegate.Statistics()
	s.ExpiryTime = f.LatestExpiry()
	return s
}

// LatestExpiry returns the latest expiry time among added elements, or
// MinTime if nothing has been added.
func (f *ExpiringFilter) LatestExpiry() time.Time {
	return fromNanos(f.latest.Load())
}
