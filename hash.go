package rollbloom

import (
	"math"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Digest is a 128-bit hash value split into two 64-bit halves.
type Digest struct {
	H1 uint64
	H2 uint64
}

// Hasher maps an element to a 128-bit digest. Implementations must be
// deterministic for equal inputs and safe for concurrent use. The quality of
// the hasher directly determines the real false positive rate.
type Hasher interface {
	Sum128(data []byte) Digest
}

// HasherFunc adapts an ordinary function to the Hasher interface.
type HasherFunc func(data []byte) Digest

// Sum128 calls h(data).
func (h HasherFunc) Sum128(data []byte) Digest {
	return h(data)
}

// XXH3Hasher hashes elements with 128-bit xxh3. It is the default hasher.
type XXH3Hasher struct{}

// Sum128 returns the xxh3-128 digest of data.
func (XXH3Hasher) Sum128(data []byte) Digest {
	h := xxh3.Hash128(data)
	return Digest{H1: h.Lo, H2: h.Hi}
}

// Murmur3Hasher hashes elements with 128-bit murmur3 (x64 variant).
type Murmur3Hasher struct{}

// Sum128 returns the murmur3-128 digest of data.
func (Murmur3Hasher) Sum128(data []byte) Digest {
	h1, h2 := murmur3.Sum128(data)
	return Digest{H1: h1, H2: h2}
}

// appendIndexes appends the k bit positions of digest d in a vector of
// bitSize bits to dst, using Kirsch-Mitzenmacher double hashing.
func appendIndexes(dst []uint64, d Digest, k uint32, bitSize uint64) []uint64 {
	combined := d.H1
	for range k {
		dst = append(dst, (combined&math.MaxInt64)%bitSize)
		combined += d.H2
	}
	return dst
}
