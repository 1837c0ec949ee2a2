package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/toolverse/observe"

	_ "modernc.org/sqlite"
)

// SQLiteCache is the durable shared store. Entries survive restarts and are
// visible to every session and process that opens the same file.
type SQLiteCache struct {
	db     *sql.DB
	now    func() time.Time
	logger observe.Logger
}

// OpenDB opens (creating if needed) a SQLite database at path with a single
// connection. The special path ":memory:" opens a private in-memory database.
// Other packages persisting to the same file share the handle.
func OpenDB(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cache: creating dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenSQLite opens the cache database at path. See OpenDB.
func OpenSQLite(path string, opts ...Option) (*SQLiteCache, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	c, err := NewSQLite(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLite creates the cache table in an already open database.
func NewSQLite(db *sql.DB, opts ...Option) (*SQLiteCache, error) {
	o := applyOptions(opts)
	c := &SQLiteCache{db: db, now: o.now, logger: o.logger}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

// DB returns the underlying handle.
func (c *SQLiteCache) DB() *sql.DB {
	return c.db
}

func (c *SQLiteCache) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("cache: initializing schema: %w", err)
	}
	return nil
}

// Get retrieves a value. Store errors are logged and reported as a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, _, ok := c.GetWithExpiry(ctx, key)
	return value, ok
}

// GetWithExpiry retrieves a value and the time it expires.
func (c *SQLiteCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, bool) {
	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false
	}
	if err != nil {
		c.logger.Warn(ctx, "cache read failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		return nil, time.Time{}, false
	}

	exp := time.Unix(0, expiresAt)
	if !c.now().Before(exp) {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expiresAt); err != nil {
			c.logger.Debug(ctx, "cache expiry cleanup failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
		return nil, time.Time{}, false
	}
	return value, exp, true
}

// Set stores a value with the given TTL, replacing any existing entry.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	now := c.now()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Purge removes every expired entry and returns how many were deleted.
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res.RowsAffected()
}

// Keys returns the live keys with the given prefix, ordered.
func (c *SQLiteCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE key LIKE ? ESCAPE '\' AND expires_at > ? ORDER BY key`,
		escapeLike(prefix)+"%", c.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Ping reports whether the database is reachable.
func (c *SQLiteCache) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Ensure SQLiteCache implements Cache and ExpiryGetter
var (
	_ Cache        = (*SQLiteCache)(nil)
	_ ExpiryGetter = (*SQLiteCache)(nil)
)
