package rollbloom

import "math"

const (
	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014
)

// OptimalBitSize returns the number of bits a filter needs to hold capacity
// elements at the given false positive probability.
//
// Formula: -n * ln(p) / ln(2)^2, truncated. For n=1000, p=0.01 this is 9585.
func OptimalBitSize(capacity uint64, fpp float64) uint64 {
	m := -float64(capacity) * math.Log(fpp) / ln2Squared
	return max(uint64(m), 1)
}

// OptimalHashCount returns the number of hash functions that minimises the
// false positive probability for a filter of bitSize bits holding capacity
// elements. It is never less than 1.
//
// Formula: round(m/n * ln(2))
func OptimalHashCount(bitSize, capacity uint64) uint32 {
	if capacity == 0 {
		return 1
	}
	k := math.Round(float64(bitSize) / float64(capacity) * ln2)
	return uint32(max(k, 1))
}

// ExpectedFalsePositiveProbability returns the probability that a lookup of
// an element never added reports a match, given how many bits are set.
//
// Formula: (setBits / m)^k
func ExpectedFalsePositiveProbability(setBits, bitSize uint64, k uint32) float64 {
	if bitSize == 0 {
		return 0
	}
	return math.Pow(float64(setBits)/float64(bitSize), float64(k))
}

// EstimatedRemainingCapacity estimates how many more distinct elements a
// filter can take before reaching capacity.
//
// The set-bit count is recovered from expectedFPP^(1/k) * m, turned into a
// cardinality estimate with -m * ln(1 - X/m) / k and subtracted from
// capacity. The result is only meaningful for filters sized near the optimal
// bits-per-element ratio, and is negative once a filter is over-filled.
func EstimatedRemainingCapacity(bitSize uint64, expectedFPP float64, capacity uint64) int64 {
	if bitSize == 0 {
		return 0
	}
	k := float64(OptimalHashCount(bitSize, capacity))
	m := float64(bitSize)

	oneBits := math.Pow(expectedFPP, 1/k) * m
	if oneBits >= m {
		// Every bit set; the cardinality estimate diverges.
		return -int64(capacity)
	}
	cardinality := -m * math.Log(1-oneBits/m) / k
	return int64(capacity) - int64(math.Round(cardinality))
}

// EstimateFalsePositiveRate estimates the false positive rate of a filter of
// bitSize bits and k hash functions after items distinct insertions.
//
// Formula: (1 - e^(-kn/m))^k
func EstimateFalsePositiveRate(bitSize uint64, k uint32, items uint64) float64 {
	m := float64(bitSize)
	n := float64(items)
	kf := float64(k)

	if m == 0 || n == 0 {
		return 0
	}

	return math.Pow(1-math.Exp(-kf*n/m), kf)
}
