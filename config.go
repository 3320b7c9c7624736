package rollbloom

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Configuration defaults.
const (
	DefaultInitialCapacity          = 1000
	DefaultFalsePositiveProbability = 0.01
	DefaultCapacityGrowthFactor     = 2.0
	DefaultScaleFactor              = 0.8
)

// Config describes the filter New assembles.
//
// A filter is scalable when Scalable is set and rolling when Expiry is set;
// rolling implies scalable. Otherwise New returns a single fixed-capacity
// filter and the chain settings are ignored.
type Config struct {
	// InitialCapacity is the capacity of the filter, or of the first bucket
	// of a scalable filter.
	InitialCapacity uint64 `yaml:"initial_capacity"`
	// FalsePositiveProbability is the target probability, for the whole
	// chain in a scalable filter.
	FalsePositiveProbability float64 `yaml:"false_positive_probability"`
	// Strategy is the concurrency strategy of every bit vector.
	Strategy ConcurrencyStrategy `yaml:"concurrency_strategy"`
	// WriteBatchSize enables write batching when positive.
	WriteBatchSize int `yaml:"write_batch_size"`

	// Scalable grows the filter with a chain of buckets.
	Scalable bool `yaml:"scalable"`
	// CapacityGrowthFactor multiplies capacity from one bucket to the next.
	CapacityGrowthFactor float64 `yaml:"capacity_growth_factor"`
	// FalsePositiveProbabilityScaleFactor multiplies the false positive
	// probability from one bucket to the next.
	FalsePositiveProbabilityScaleFactor float64 `yaml:"false_positive_probability_scale_factor"`
	// MaximumBuckets caps the number of live buckets.
	MaximumBuckets int `yaml:"maximum_buckets"`

	// Expiry makes the filter rolling.
	Expiry ExpiryStrategy `yaml:"-"`
	// Hasher defaults to XXH3Hasher.
	Hasher Hasher `yaml:"-"`
	// Clock defaults to the system clock.
	Clock Clock `yaml:"-"`
	// Logger defaults to a no-op logger.
	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration for a fixed-capacity filter of 1000
// elements at 1% false positive probability.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:                     DefaultInitialCapacity,
		FalsePositiveProbability:            DefaultFalsePositiveProbability,
		Strategy:                            DefaultStrategy,
		CapacityGrowthFactor:                DefaultCapacityGrowthFactor,
		FalsePositiveProbabilityScaleFactor: DefaultScaleFactor,
		MaximumBuckets:                      DefaultMaximumBuckets,
	}
}

// ParseConfig decodes a YAML document over DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("rollbloom: decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Rolling reports whether the configuration describes a rolling filter.
func (c Config) Rolling() bool {
	return c.Expiry != nil
}

// chained reports whether New builds a chain of buckets.
func (c Config) chained() bool {
	return c.Scalable || c.Rolling()
}

// Validate checks the configuration. Out of range values are reported,
// never clamped.
func (c Config) Validate() error {
	if c.InitialCapacity == 0 {
		return ErrInvalidCapacity
	}
	if !(c.FalsePositiveProbability > 0 && c.FalsePositiveProbability < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidProbability, c.FalsePositiveProbability)
	}
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStrategy, uint8(c.Strategy))
	}
	if c.WriteBatchSize < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidBatchSize, c.WriteBatchSize)
	}
	if !c.chained() {
		return nil
	}
	if !(c.CapacityGrowthFactor >= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidGrowthFactor, c.CapacityGrowthFactor)
	}
	if !(c.FalsePositiveProbabilityScaleFactor > 0 && c.FalsePositiveProbabilityScaleFactor < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidScaleFactor, c.FalsePositiveProbabilityScaleFactor)
	}
	if c.MaximumBuckets <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBucketCount, c.MaximumBuckets)
	}
	return nil
}
