// Package memory provides a bounded in-process query store.
package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tinnou/router/internal/core/ports"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1000

// Store is an LRU-bounded in-memory implementation of ports.QueryStore.
type Store struct {
	cache *lru.Cache[string, string]
}

var _ ports.QueryStore = (*Store)(nil)

// New creates a store holding at most capacity entries.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	cache, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	return &Store{cache: cache}, nil
}

// Get returns the query registered under hash and marks it recently used.
func (s *Store) Get(ctx context.Context, hash string) (string, bool, error) {
	query, ok := s.cache.Get(hash)
	return query, ok, nil
}

// Put registers query under hash, evicting the least recently used entry
// when the store is full.
func (s *Store) Put(ctx context.Context, hash, query string) error {
	s.cache.Add(hash, query)
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close drops all entries.
func (s *Store) Close() error {
	s.cache.Purge()
	return nil
}
