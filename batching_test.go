package rollbloom

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingFilter records the writes that reach the filter it wraps.
type countingFilter struct {
	BloomFilter
	adds    atomic.Int64
	addAlls atomic.Int64

	mu      sync.Mutex
	batches []int
}

func (c *countingFilter) Add(data []byte) bool {
	c.adds.Add(1)
	return c.BloomFilter.Add(data)
}

func (c *countingFilter) AddAll(data [][]byte) bool {
	c.addAlls.Add(1)
	c.mu.Lock()
	c.batches = append(c.batches, len(data))
	c.mu.Unlock()
	return c.BloomFilter.AddAll(data)
}

func (c *countingFilter) batchSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.batches...)
}

func TestBatchingFlushesAtBatchSize(t *testing.T) {
	inner := &countingFilter{BloomFilter: newTestFilter(t, 1000, 0.01, CopyOnWrite)}
	f, err := NewBatching(inner, 5)
	require.NoError(t, err)

	items := make([][]byte, 5)
	for i := range items {
		items[i] = fmt.Appendf(nil, "item-%d", i)
	}

	for _, item := range items[:4] {
		require.True(t, f.Add(item))
	}
	require.Zero(t, inner.adds.Load())
	require.Zero(t, inner.addAlls.Load())
	require.Equal(t, 4, f.Buffered())
	for _, item := range items[:4] {
		require.True(t, f.MightContain(item), "buffered %s", item)
		require.False(t, inner.MightContain(item), "%s reached the delegate early", item)
	}

	require.True(t, f.Add(items[4]))
	require.Equal(t, int64(1), inner.addAlls.Load())
	require.Zero(t, inner.adds.Load())
	require.Equal(t, []int{5}, inner.batchSizes())
	require.Zero(t, f.Buffered())
	for _, item := range items {
		require.True(t, inner.MightContain(item))
		require.True(t, f.MightContain(item))
	}
}

func TestBatchingDuplicateBuffered(t *testing.T) {
	inner := &countingFilter{BloomFilter: newTestFilter(t, 1000, 0.01, Synchronized)}
	f, err := NewBatching(inner, 3)
	require.NoError(t, err)

	require.True(t, f.Add([]byte("a")))
	require.False(t, f.Add([]byte("a")))
	require.Equal(t, 1, f.Buffered())
	require.Zero(t, inner.addAlls.Load())
}

func TestBatchingAddAllWritesThrough(t *testing.T) {
	inner := &countingFilter{BloomFilter: newTestFilter(t, 1000, 0.01, Atomic)}
	f, err := NewBatching(inner, 100)
	require.NoError(t, err)

	require.True(t, f.AddAll([][]byte{[]byte("a"), []byte("b")}))
	require.False(t, f.AddAll(nil))
	require.Equal(t, int64(1), inner.addAlls.Load())
	require.Zero(t, f.Buffered())
	require.True(t, inner.MightContain([]byte("a")))
}

func TestBatchingFlush(t *testing.T) {
	inner := &countingFilter{BloomFilter: newTestFilter(t, 1000, 0.01, Atomic)}
	f, err := NewBatching(inner, 100)
	require.NoError(t, err)

	f.Flush()
	require.Zero(t, inner.addAlls.Load(), "empty flush reached the delegate")

	f.Add([]byte("a"))
	f.Add([]byte("b"))
	f.Flush()
	require.Equal(t, []int{2}, inner.batchSizes())
	require.True(t, inner.MightContain([]byte("b")))
	require.Equal(t, inner.Statistics(), f.Statistics())

	// Newly buffered, although the delegate already holds it.
	require.True(t, f.Add([]byte("a")))
	require.Equal(t, 1, f.Buffered())
}

func TestBatchingBufferIsCopied(t *testing.T) {
	inner := newTestFilter(t, 1000, 0.01, Atomic)
	f, err := NewBatching(inner, 2)
	require.NoError(t, err)

	buf := []byte("original")
	f.Add(buf)
	copy(buf, "mutated!")
	f.Add([]byte("other"))

	require.True(t, inner.MightContain([]byte("original")))
}

func TestBatchingConcurrent(t *testing.T) {
	for _, s := range allStrategies {
		t.Run(s.String(), func(t *testing.T) {
			inner := newTestFilter(t, 20000, 0.01, s)
			f, err := NewBatching(inner, 64)
			require.NoError(t, err)

			const numGoroutines = 8
			const itemsPerGoroutine = 1000

			var wg sync.WaitGroup
			wg.Add(numGoroutines * 2)
			for g := range numGoroutines {
				go func(goroutineID int) {
					defer wg.Done()
					for i := range itemsPerGoroutine {
						item := fmt.Appendf(nil, "g%d-%d", goroutineID, i)
						f.Add(item)
						if !f.MightContain(item) {
							t.Errorf("%s missing right after Add", item)
							return
						}
					}
				}(g)
				go func(goroutineID int) {
					defer wg.Done()
					for i := range itemsPerGoroutine {
						f.MightContain(fmt.Appendf(nil, "g%d-%d", goroutineID, i))
					}
				}(g)
			}
			wg.Wait()

			for g := range numGoroutines {
				for i := range itemsPerGoroutine {
					require.True(t, f.MightContain(fmt.Appendf(nil, "g%d-%d", g, i)))
				}
			}
			require.Less(t, f.Buffered(), 64)
		})
	}
}

func TestNewBatchingErrors(t *testing.T) {
	_, err := NewBatching(nil, 5)
	require.ErrorIs(t, err, ErrNilDelegate)

	inner := newTestFilter(t, 10, 0.1, Atomic)
	for _, size := range []int{0, -1} {
		_, err = NewBatching(inner, size)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	}
}
