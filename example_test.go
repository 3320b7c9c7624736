package rollbloom_test

import (
	"fmt"
	"sync"
	"time"

	"github.com/jcalabro/rollbloom"
)

// This example demonstrates basic bloom filter usage for membership testing.
func Example() {
	// Create a filter for 10,000 items with 1% false positive rate
	f, err := rollbloom.NewFilter(10_000, 0.01)
	if err != nil {
		panic(err)
	}

	f.Add([]byte("apple"))
	f.Add([]byte("banana"))
	f.Add([]byte("cherry"))

	fmt.Println("apple:", f.MightContain([]byte("apple")))   // true (added)
	fmt.Println("banana:", f.MightContain([]byte("banana"))) // true (added)
	fmt.Println("grape:", f.MightContain([]byte("grape")))   // false (not added)

	// Output:
	// apple: true
	// banana: true
	// grape: false
}

// This example demonstrates using the Atomic strategy for concurrent access.
func Example_concurrent() {
	f, err := rollbloom.NewFilter(100_000, 0.01, rollbloom.WithStrategy(rollbloom.Atomic))
	if err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 1000 {
				f.Add(fmt.Appendf(nil, "worker-%d-item-%d", id, j))
			}
		}(i)
	}
	wg.Wait()

	var missing int
	for i := range 4 {
		for j := range 1000 {
			if !f.MightContain(fmt.Appendf(nil, "worker-%d-item-%d", i, j)) {
				missing++
			}
		}
	}
	fmt.Println("Missing:", missing)

	// Output:
	// Missing: 0
}

// This example shows how to monitor filter statistics.
func Example_statistics() {
	f, err := rollbloom.NewFilter(1000, 0.01)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Bits: %d\n", f.BitSize())
	fmt.Printf("Hash functions (k): %d\n", f.HashCount())
	fmt.Printf("Saturated: %v\n", f.Statistics().Saturated())

	// Output:
	// Bits: 9585
	// Hash functions (k): 7
	// Saturated: false
}

// This example builds a filter that grows as elements are added.
func Example_scalable() {
	cfg := rollbloom.DefaultConfig()
	cfg.InitialCapacity = 100
	cfg.Strategy = rollbloom.Atomic
	cfg.Scalable = true

	f, err := rollbloom.New(cfg)
	if err != nil {
		panic(err)
	}

	for i := range 10_000 {
		f.Add(fmt.Appendf(nil, "item-%d", i))
	}

	s := f.Statistics()
	fmt.Println("Grew past initial capacity:", s.Capacity > 100)
	fmt.Println("Contains item-0:", f.MightContain([]byte("item-0")))

	// Output:
	// Grew past initial capacity: true
	// Contains item-0: true
}

// This example builds a rolling filter over elements that carry their own
// timestamp.
func Example_rolling() {
	// Elements are "<unix seconds>:<id>" and expire a minute after their timestamp.
	expiry := func(data []byte) time.Time {
		var ts int64
		fmt.Sscanf(string(data), "%d:", &ts)
		return time.Unix(ts, 0).Add(time.Minute)
	}

	cfg := rollbloom.DefaultConfig()
	cfg.Expiry = expiry
	f, err := rollbloom.New(cfg)
	if err != nil {
		panic(err)
	}

	f.Add([]byte("1700000000:a"))
	fmt.Println("Contains a:", f.MightContain([]byte("1700000000:a")))
	fmt.Println("Contains future b:", f.MightContain([]byte("1800000000:b")))

	// Output:
	// Contains a: true
	// Contains future b: false
}

func ExampleOptimalBitSize() {
	bits := rollbloom.OptimalBitSize(1_000_000, 0.01)
	k := rollbloom.OptimalHashCount(bits, 1_000_000)

	fmt.Printf("For 1M items at 1%% FP rate:\n")
	fmt.Printf("  Bits: %d\n", bits)
	fmt.Printf("  Hash functions (k): %d\n", k)

	// Output:
	// For 1M items at 1% FP rate:
	//   Bits: 9585058
	//   Hash functions (k): 7
}

func ExampleEstimateFalsePositiveRate() {
	rate := rollbloom.EstimateFalsePositiveRate(9585, 7, 1000)
	fmt.Printf("Estimated FP rate: %.2f%%\n", rate*100)

	// Output:
	// Estimated FP rate: 1.00%
}
