package rollbloom

import "go.uber.org/zap"

// New validates cfg and assembles the filter it describes:
//
//	strategy -> fixed-capacity filter, or chain of expiring buckets
//	         -> expiry tracking over the whole chain (rolling only)
//	         -> write batching (WriteBatchSize > 0)
//
// A scalable filter is a rolling filter whose elements never expire.
func New(cfg Config) (BloomFilter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = XXH3Hasher{}
	}

	var (
		f   BloomFilter
		err error
	)
	if cfg.chained() {
		f, err = newChained(cfg, hasher, log)
	} else {
		f, err = NewFilter(cfg.InitialCapacity, cfg.FalsePositiveProbability,
			WithStrategy(cfg.Strategy), WithHasher(hasher))
	}
	if err != nil {
		return nil, err
	}

	if cfg.WriteBatchSize > 0 {
		if f, err = NewBatching(f, cfg.WriteBatchSize); err != nil {
			return nil, err
		}
	}

	log.Debug("built bloom filter",
		zap.Uint64("initial_capacity", cfg.InitialCapacity),
		zap.Float64("fpp", cfg.FalsePositiveProbability),
		zap.Stringer("strategy", cfg.Strategy),
		zap.Bool("scalable", cfg.chained()),
		zap.Bool("rolling", cfg.Rolling()),
		zap.Int("write_batch_size", cfg.WriteBatchSize))
	return f, nil
}

func newChained(cfg Config, hasher Hasher, log *zap.Logger) (BloomFilter, error) {
	expiry := cfg.Expiry
	if expiry == nil {
		expiry = NeverExpire
	}

	pool, err := NewScalingPool(PoolConfig{
		InitialCapacity:          cfg.InitialCapacity,
		FalsePositiveProbability: cfg.FalsePositiveProbability,
		CapacityGrowthFactor:     cfg.CapacityGrowthFactor,
		ScaleFactor:              cfg.FalsePositiveProbabilityScaleFactor,
		MaximumBuckets:           cfg.MaximumBuckets,
		Strategy:                 cfg.Strategy,
		Hasher:                   hasher,
		Expiry:                   expiry,
	})
	if err != nil {
		return nil, err
	}

	opts := []ChainOption{WithMaxBuckets(cfg.MaximumBuckets), WithLogger(log)}
	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}
	chain, err := NewChain(pool, opts...)
	if err != nil {
		return nil, err
	}

	if !cfg.Rolling() {
		return chain, nil
	}
	return NewExpiring(chain, cfg.Expiry)
}
