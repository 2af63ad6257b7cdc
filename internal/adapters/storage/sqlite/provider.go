// Package sqlite provides the SQLite query store adapter.
package sqlite

import (
	"context"

	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/storage/sqldb"
)

// Provider implements ports.QueryStore using SQLite.
// It wraps the sqldb implementation.
type Provider struct {
	*sqldb.Store
}

// NewProvider opens (or creates) the SQLite database at path. Use ":memory:"
// for a throwaway database.
func NewProvider(ctx context.Context, path string, capacity int) (*Provider, error) {
	store, err := sqldb.NewSQLite(ctx, path, capacity)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Store: store,
	}, nil
}

// Ensure Provider implements ports.QueryStore at compile time.
var _ ports.QueryStore = (*Provider)(nil)
