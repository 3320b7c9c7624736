package rollbloom

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// bitVector is an add-only vector of bits. Bits are never cleared, and the
// set-bit count only grows.
type bitVector interface {
	// setAll sets every bit in indexes as a single mutation and reports
	// whether any bit transitioned from 0 to 1.
	setAll(indexes []uint64) bool
	// testAll reports whether every bit in indexes is set.
	testAll(indexes []uint64) bool
	// ones returns the number of set bits.
	ones() uint64
}

// cowSnapshot is an immutable published state of a cowVector.
type cowSnapshot struct {
	bits  *bitset.BitSet
	count uint64
}

func (s *cowSnapshot) testAll(indexes []uint64) bool {
	for _, idx := range indexes {
		if !s.bits.Test(uint(idx)) {
			return false
		}
	}
	return true
}

// cowVector is the CopyOnWrite bit vector.
type cowVector struct {
	cur atomic.Pointer[cowSnapshot]
}

func newCOWVector(size uint64) *cowVector {
	v := &cowVector{}
	v.cur.Store(&cowSnapshot{bits: bitset.New(uint(size))})
	return v
}

func (v *cowVector) setAll(indexes []uint64) bool {
	for {
		old := v.cur.Load()
		// Nothing to publish; skip the copy.
		if old.testAll(indexes) {
			return false
		}

		next := &cowSnapshot{bits: old.bits.Clone(), count: old.count}
		for _, idx := range indexes {
			if !next.bits.Test(uint(idx)) {
				next.bits.Set(uint(idx))
				next.count++
			}
		}

		if v.cur.CompareAndSwap(old, next) {
			return true
		}
		// A concurrent writer published first; rebuild from its snapshot.
	}
}

func (v *cowVector) testAll(indexes []uint64) bool {
	return v.cur.Load().testAll(indexes)
}

func (v *cowVector) ones() uint64 {
	return v.cur.Load().count
}

// lockedVector is the Synchronized bit vector.
type lockedVector struct {
	mu    sync.RWMutex
	bits  *bitset.BitSet
	count uint64
}

func newLockedVector(size uint64) *lockedVector {
	return &lockedVector{bits: bitset.New(uint(size))}
}

func (v *lockedVector) setAll(indexes []uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := false
	for _, idx := range indexes {
		if !v.bits.Test(uint(idx)) {
			v.bits.Set(uint(idx))
			v.count++
			changed = true
		}
	}
	return changed
}

func (v *lockedVector) testAll(indexes []uint64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, idx := range indexes {
		if !v.bits.Test(uint(idx)) {
			return false
		}
	}
	return true
}

func (v *lockedVector) ones() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}

// atomicVector is the Atomic bit vector: cache-line aligned atomic words
// updated with compare-and-swap.
type atomicVector struct {
	raw   []byte          // Raw allocation to keep aligned memory alive for GC
	words []atomic.Uint64 // Bit i lives in words[i/64]
	count atomic.Uint64   // Incremented once per 0->1 transition
}

func newAtomicVector(size uint64) *atomicVector {
	raw, words := makeAlignedAtomicUint64Slice(int((size + 63) / 64))
	return &atomicVector{raw: raw, words: words}
}

// makeAlignedAtomicUint64Slice allocates a cache-line aligned slice of atomic.Uint64.
// Returns the raw byte slice (to keep alive for GC) and the aligned atomic slice.
func makeAlignedAtomicUint64Slice(n int) ([]byte, []atomic.Uint64) {
	// atomic.Uint64 is the same size as uint64 (8 bytes)
	const atomicSize = 8
	raw := make([]byte, n*atomicSize+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// setBit sets bit idx and reports whether this call performed the 0->1
// transition. Of several goroutines racing on the same bit exactly one wins
// the CAS that flips it, so the counter is bumped at most once per bit.
func (v *atomicVector) setBit(idx uint64) bool {
	word := &v.words[idx/64]
	mask := uint64(1) << (idx % 64)
	for {
		old := word.Load()
		if old&mask != 0 {
			return false
		}
		if word.CompareAndSwap(old, old|mask) {
			v.count.Add(1)
			return true
		}
	}
}

func (v *atomicVector) setAll(indexes []uint64) bool {
	changed := false
	for _, idx := range indexes {
		if v.setBit(idx) {
			changed = true
		}
	}
	return changed
}

func (v *atomicVector) testAll(indexes []uint64) bool {
	for _, idx := range indexes {
		if v.words[idx/64].Load()&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

func (v *atomicVector) ones() uint64 {
	return v.count.Load()
}
