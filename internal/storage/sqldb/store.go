// Package sqldb provides a query store persisted in a SQL database. It
// supports SQLite, PostgreSQL and MySQL through the dialect package.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tinnou/router/internal/apq"
	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/storage/dialect"
)

const (
	tableName = "persisted_queries"
	indexName = "idx_persisted_queries_last_used"
)

// DefaultCapacity is used when Config.Capacity is not positive.
const DefaultCapacity = 10000

// Store is a SQL implementation of ports.QueryStore. Recency is tracked in
// last_used_at; when the table is full the least recently used rows are
// deleted before a new hash is inserted.
type Store struct {
	db       *sqlx.DB
	dialect  dialect.Dialect
	capacity int

	// writeMu serializes Put within this process; eviction is a
	// read-then-delete sequence.
	writeMu sync.Mutex

	clockMu  sync.Mutex
	lastTick int64
	now      func() time.Time
}

var _ ports.QueryStore = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver   string // Driver name: sqlite, postgres, mysql
	DSN      string // Data source name / connection string
	Capacity int    // Maximum number of stored queries
}

// New creates a new SQL store with the specified configuration.
func New(ctx context.Context, cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if n := d.MaxOpenConns(); n > 0 {
		db.SetMaxOpenConns(n)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.PragmaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	store := &Store{db: db, dialect: d, capacity: capacity, now: time.Now}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite store.
func NewSQLite(ctx context.Context, dsn string, capacity int) (*Store, error) {
	return New(ctx, Config{Driver: "sqlite", DSN: dsn, Capacity: capacity})
}

// DB returns the underlying sqlx.DB for advanced operations
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema(ctx context.Context) error {
	columns := []string{
		"hash CHAR(64) NOT NULL PRIMARY KEY",
		"query " + s.dialect.TextType() + " NOT NULL",
		"last_used_at BIGINT NOT NULL",
		"created_at BIGINT NOT NULL",
	}
	if inline := s.dialect.InlineIndex(indexName, "last_used_at"); inline != "" {
		columns = append(columns, inline)
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", tableName, strings.Join(columns, ",\n\t")),
	}
	if stmt := s.dialect.CreateIndexStatement(indexName, tableName, "last_used_at"); stmt != "" {
		statements = append(statements, stmt)
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// tick returns a strictly increasing recency stamp.
func (s *Store) tick() int64 {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UnixNano()
	if t <= s.lastTick {
		t = s.lastTick + 1
	}
	s.lastTick = t
	return t
}

// Get returns the query registered under hash and refreshes its recency.
// A row whose text does not hash to its key is reported as a miss.
func (s *Store) Get(ctx context.Context, hash string) (string, bool, error) {
	var query string
	err := s.db.GetContext(ctx, &query,
		s.dialect.Rebind(`SELECT query FROM `+tableName+` WHERE hash = ?`), hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get persisted query: %w", err)
	}

	if !apq.Verify(query, hash) {
		return "", false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`UPDATE `+tableName+` SET last_used_at = ? WHERE hash = ?`), s.tick(), hash); err != nil {
		return "", false, fmt.Errorf("failed to touch persisted query: %w", err)
	}

	return query, true, nil
}

// Put registers query under hash. Storing an existing hash only refreshes
// its recency.
func (s *Store) Put(ctx context.Context, hash, query string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists,
		s.dialect.Rebind(`SELECT COUNT(*) FROM `+tableName+` WHERE hash = ?`), hash); err != nil {
		return fmt.Errorf("failed to check persisted query: %w", err)
	}

	if exists == 0 {
		if err := s.evict(ctx, tx); err != nil {
			return err
		}
	}

	now := s.tick()
	insert := `INSERT INTO ` + tableName + ` (hash, query, last_used_at, created_at) VALUES (?, ?, ?, ?) ` +
		s.dialect.UpsertClause("hash", []string{"last_used_at"})
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(insert), hash, query, now, now); err != nil {
		return fmt.Errorf("failed to store persisted query: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit persisted query: %w", err)
	}
	return nil
}

// evict makes room for one new row.
func (s *Store) evict(ctx context.Context, tx *sqlx.Tx) error {
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+tableName); err != nil {
		return fmt.Errorf("failed to count persisted queries: %w", err)
	}

	excess := count - s.capacity + 1
	if excess <= 0 {
		return nil
	}

	var victims []string
	if err := tx.SelectContext(ctx, &victims,
		s.dialect.Rebind(`SELECT hash FROM `+tableName+` ORDER BY last_used_at ASC, hash ASC LIMIT ?`), excess); err != nil {
		return fmt.Errorf("failed to select eviction candidates: %w", err)
	}
	if len(victims) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM `+tableName+` WHERE hash IN (?)`, victims)
	if err != nil {
		return fmt.Errorf("failed to build eviction query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to evict persisted queries: %w", err)
	}

	return nil
}

// Len returns the number of stored queries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+tableName); err != nil {
		return 0, fmt.Errorf("failed to count persisted queries: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
