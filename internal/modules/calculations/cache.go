// Package calculations provides a TTL cache for derived numerical results,
// backed by the cache database. Entries are msgpack-encoded and keyed by
// content hashes so that a change in inputs never resurrects stale output.
package calculations

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL bounds how long a cached calculation is trusted.
const DefaultTTL = 24 * time.Hour

// Cache stores msgpack-encoded calculation results with expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewCache creates a calculation cache. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		db:  db,
		ttl: ttl,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// Init creates the cache table if it does not exist.
func (c *Cache) Init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS calc_cache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create calc_cache table: %w", err)
	}
	return nil
}

// Get loads a cached value into dst. It reports false on a miss or an
// expired entry; expired entries are deleted on sight.
func (c *Cache) Get(key string, dst interface{}) (bool, error) {
	var value []byte
	var createdAt int64
	err := c.db.QueryRow(`SELECT value, created_at FROM calc_cache WHERE key = ?`, key).
		Scan(&value, &createdAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query calc cache: %w", err)
	}

	if time.Since(time.Unix(createdAt, 0)) > c.ttl {
		if _, err := c.db.Exec(`DELETE FROM calc_cache WHERE key = ?`, key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("Failed to evict expired cache entry")
		}
		return false, nil
	}

	if err := msgpack.Unmarshal(value, dst); err != nil {
		// A decode failure means the stored shape changed; treat as a miss.
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to decode cached value, discarding")
		_, _ = c.db.Exec(`DELETE FROM calc_cache WHERE key = ?`, key)
		return false, nil
	}
	return true, nil
}

// Set stores a value under key, replacing any previous entry.
func (c *Cache) Set(key string, v interface{}) error {
	encoded, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT INTO calc_cache (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at
	`, key, encoded, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache value: %w", err)
	}
	return nil
}

// HashKey builds a deterministic cache key from a symbol set and additional
// discriminating parts. Symbols are sorted so the key is order-independent.
func HashKey(symbols []string, parts ...string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	keyData := strings.Join(sorted, ",") + "|" + strings.Join(parts, "|")
	h := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(h[:16])
}
