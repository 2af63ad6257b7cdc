// Package sturdy provides a query store backed by the sturdyc sharded cache.
//
// Entries live for a fixed TTL counted from the last Put. Get does not
// refresh an entry, so a full shard evicts by write age rather than by
// recency of use; clients whose query expired re-register it through the
// usual not-found round trip. Use the memory store for strict LRU.
package sturdy

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/tinnou/router/internal/core/ports"
)

// Config holds the sturdyc sizing options.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is how long a registered query is kept. Clients re-register after
	// expiry through the usual not-found round trip.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of a full shard is evicted.
	EvictionPercentage int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:           1000,
		NumShards:          64,
		TTL:                24 * time.Hour,
		EvictionPercentage: 10,
	}
}

// Store is a ports.QueryStore on top of sturdyc. Full shards evict the
// entries closest to expiry, which with a fixed TTL are the least recently
// written ones.
type Store struct {
	client *sturdyc.Client[string]
}

var _ ports.QueryStore = (*Store)(nil)

// New validates cfg and creates the store. opts are passed to sturdyc.
func New(cfg Config, opts ...sturdyc.Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[string](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		opts...,
	)

	return &Store{client: client}, nil
}

// Get returns the query registered under hash. A hit does not extend the
// entry's lifetime.
func (s *Store) Get(ctx context.Context, hash string) (string, bool, error) {
	query, ok := s.client.Get(hash)
	return query, ok, nil
}

// Put registers query under hash.
func (s *Store) Put(ctx context.Context, hash, query string) error {
	s.client.Set(hash, query)
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	return s.client.Size()
}

// Close is a no-op; sturdyc holds no external resources.
func (s *Store) Close() error {
	return nil
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	// Each shard holds Capacity/NumShards entries; a zero-sized shard still
	// keeps one, which would overrun Capacity.
	if c.Capacity < c.NumShards {
		return &ConfigError{Field: "NumShards", Message: "must not exceed Capacity"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
