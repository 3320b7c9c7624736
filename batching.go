package rollbloom

import (
	"bytes"
	"fmt"
	"sync"
)

// BatchingFilter buffers single-element writes and hands them to the
// wrapped filter in batches of a fixed size. This amortises the per-write
// cost of CopyOnWrite filters and of chain bucket selection.
//
// Buffered elements are visible to MightContain immediately, so batching
// never introduces false negatives.
type BatchingFilter struct {
	delegate  BloomFilter
	batchSize int

	mu      sync.Mutex // Serialises insert-then-maybe-flush
	pending [][]byte   // Guarded by mu; insertion order of buffered elements
	buffer  sync.Map   // string(element) -> struct{}; read without mu
}

// NewBatching wraps delegate so that Add flushes every batchSize elements.
func NewBatching(delegate BloomFilter, batchSize int) (*BatchingFilter, error) {
	if delegate == nil {
		return nil, ErrNilDelegate
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d, want > 0", ErrInvalidBatchSize, batchSize)
	}
	return &BatchingFilter{
		delegate:  delegate,
		batchSize: batchSize,
		pending:   make([][]byte, 0, batchSize),
	}, nil
}

// Add buffers data, flushing the buffer to the delegate once it holds
// batchSize elements. It reports whether data was newly buffered, not
// whether the delegate changed: adding an element again after it was
// flushed reports true.
func (f *BatchingFilter) Add(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, loaded := f.buffer.LoadOrStore(string(data), struct{}{}); loaded {
		return false
	}
	f.pending = append(f.pending, bytes.Clone(data))
	if len(f.pending) >= f.batchSize {
		f.flushLocked()
	}
	return true
}

// flushLocked writes the buffer to the delegate and then empties it. The
// delegate write happens first so an element is always visible in at least
// one of the two.
func (f *BatchingFilter) flushLocked() {
	if len(f.pending) == 0 {
		return
	}
	batch := f.pending
	f.pending = make([][]byte, 0, f.batchSize)

	f.delegate.AddAll(batch)
	for _, d := range batch {
		f.buffer.Delete(string(d))
	}
}

// Flush writes any buffered elements to the delegate.
func (f *BatchingFilter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushLocked()
}

// Buffered returns the number of elements waiting to be flushed.
func (f *BatchingFilter) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// AddAll writes data straight to the delegate, bypassing the buffer.
func (f *BatchingFilter) AddAll(data [][]byte) bool {
	if len(data) == 0 {
		return false
	}
	return f.delegate.AddAll(data)
}

// MightContain checks the buffer first, then the delegate.
func (f *BatchingFilter) MightContain(data []byte) bool {
	if _, ok := f.buffer.Load(string(data)); ok {
		return true
	}
	return f.delegate.MightContain(data)
}

// Statistics returns the delegate's statistics. Buffered elements are not
// reflected until flushed.
func (f *BatchingFilter) Statistics() Statistics {
	return f.delegate.Statistics()
}
