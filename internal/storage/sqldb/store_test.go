package sqldb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tinnou/router/internal/apq"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "apq.db")
	store, err := NewSQLite(context.Background(), dsn, capacity)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLDBStore_RoundTrip(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	query := "{ hello }"
	if err := store.Put(ctx, apq.HashOf(query), query); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get(ctx, apq.HashOf(query))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || got != query {
		t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, query)
	}
}

func TestSQLDBStore_Miss(t *testing.T) {
	store := newTestStore(t, 10)

	got, ok, err := store.Get(context.Background(), apq.HashOf("{ unknown }"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || got != "" {
		t.Errorf("Get() = (%q, %v), want miss", got, ok)
	}
}

func TestSQLDBStore_PutIdempotent(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	query := "{ hello }"
	h := apq.HashOf(query)
	for i := 0; i < 3; i++ {
		if err := store.Put(ctx, h, query); err != nil {
			t.Fatalf("Put() #%d error = %v", i, err)
		}
	}

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestSQLDBStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	a, b, c := "{ a }", "{ b }", "{ c }"
	for _, q := range []string{a, b} {
		if err := store.Put(ctx, apq.HashOf(q), q); err != nil {
			t.Fatalf("Put(%q) error = %v", q, err)
		}
	}

	// Reading a makes b the least recently used entry.
	if _, ok, err := store.Get(ctx, apq.HashOf(a)); err != nil || !ok {
		t.Fatalf("Get(a) = %v, %v", ok, err)
	}

	if err := store.Put(ctx, apq.HashOf(c), c); err != nil {
		t.Fatalf("Put(c) error = %v", err)
	}

	n, _ := store.Len(ctx)
	if n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
	if _, ok, _ := store.Get(ctx, apq.HashOf(b)); ok {
		t.Error("expected b to be evicted")
	}
	for _, q := range []string{a, c} {
		if _, ok, _ := store.Get(ctx, apq.HashOf(q)); !ok {
			t.Errorf("expected %q to be present", q)
		}
	}
}

func TestSQLDBStore_CorruptRowIsMiss(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	h := apq.HashOf("{ original }")
	_, err := store.DB().ExecContext(ctx,
		`INSERT INTO persisted_queries (hash, query, last_used_at, created_at) VALUES (?, ?, 1, 1)`,
		h, "{ tampered }")
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, ok, err := store.Get(ctx, h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Errorf("Get() returned %q for a row that does not match its hash", got)
	}
}

func TestSQLDBStore_Persists(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "apq.db")
	ctx := context.Background()
	query := "{ persisted }"

	first, err := NewSQLite(ctx, dsn, 10)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	if err := first.Put(ctx, apq.HashOf(query), query); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	first.Close()

	second, err := NewSQLite(ctx, dsn, 10)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	got, ok, err := second.Get(ctx, apq.HashOf(query))
	if err != nil || !ok || got != query {
		t.Errorf("Get() after reopen = (%q, %v, %v)", got, ok, err)
	}
}

func TestSQLDBStore_ConcurrentPuts(t *testing.T) {
	store := newTestStore(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				q := fmt.Sprintf("{ f%d }", i)
				if err := store.Put(ctx, apq.HashOf(q), q); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 20 {
		t.Errorf("Len() = %d, want 20", n)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New(context.Background(), Config{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
