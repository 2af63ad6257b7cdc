// Package tiered layers a fast in-process query store over a durable one.
package tiered

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/tinnou/router/internal/core/ports"
)

// Store reads through a near cache to a far store. Concurrent misses for the
// same hash share a single far lookup.
type Store struct {
	near  ports.QueryStore
	far   ports.QueryStore
	group singleflight.Group
}

var _ ports.QueryStore = (*Store)(nil)

type lookup struct {
	query string
	found bool
}

// New creates a tiered store. Both tiers are owned by the returned Store and
// closed with it.
func New(near, far ports.QueryStore) *Store {
	return &Store{near: near, far: far}
}

// Get checks the near tier first, then the far tier. Far hits are copied
// into the near tier. The shared far lookup is detached from any single
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (s *Store) Get(ctx context.Context, hash string) (string, bool, error) {
	query, ok, err := s.near.Get(ctx, hash)
	if err != nil {
		return "", false, fmt.Errorf("near tier get: %w", err)
	}
	if ok {
		return query, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(hash, func() (any, error) {
		query, ok, err := s.far.Get(shared, hash)
		if err != nil {
			return nil, fmt.Errorf("far tier get: %w", err)
		}
		if ok {
			if err := s.near.Put(shared, hash, query); err != nil {
				return nil, fmt.Errorf("near tier fill: %w", err)
			}
		}
		return lookup{query: query, found: ok}, nil
	})

	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("far tier get: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		l := res.Val.(lookup)
		return l.query, l.found, nil
	}
}

// Put writes the far tier before the near tier so a registered query is
// durable before it is served from memory.
func (s *Store) Put(ctx context.Context, hash, query string) error {
	if err := s.far.Put(ctx, hash, query); err != nil {
		return fmt.Errorf("far tier put: %w", err)
	}
	if err := s.near.Put(ctx, hash, query); err != nil {
		return fmt.Errorf("near tier put: %w", err)
	}
	return nil
}

// Close closes both tiers.
func (s *Store) Close() error {
	return errors.Join(s.near.Close(), s.far.Close())
}
