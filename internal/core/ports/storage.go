package ports

import "context"

// QueryStore maps a SHA-256 hash to the query text it was computed from.
//
// Implementations must be safe for concurrent use, bounded in size, and must
// never hand out text whose hash differs from the requested key. A miss is
// reported as ok=false with a nil error; err is reserved for faults of the
// backing store.
type QueryStore interface {
	Get(ctx context.Context, hash string) (query string, ok bool, err error)
	// Put is idempotent. When the store is full the least recently used entry
	// is evicted first.
	Put(ctx context.Context, hash, query string) error
	Close() error
}
