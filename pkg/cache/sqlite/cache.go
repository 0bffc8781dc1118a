package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pinfetch/pinfetch/pkg/models"
)

// Cache is an exact-match cache of search-API results backed by SQLite.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS search_cache (
	query_hash TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	limit_n INTEGER NOT NULL,
	urls TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL
);
`

// New creates a Cache with the given database path and default TTL.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// HashQuery computes a SHA-256 hash of the normalized query and the result limit.
func HashQuery(query string, limit int) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves cached URLs. Returns false if not found or expired.
func (c *Cache) Get(queryHash string) ([]string, bool) {
	var raw string
	var createdAt time.Time
	var ttlSeconds int64

	err := c.db.QueryRow(
		`SELECT urls, created_at, ttl_seconds FROM search_cache WHERE query_hash = ?`,
		queryHash,
	).Scan(&raw, &createdAt, &ttlSeconds)

	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if time.Since(createdAt) > ttl {
		c.misses.Add(1)
		return nil, false
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return urls, true
}

// Put stores a result list in the cache.
func (c *Cache) Put(queryHash, query string, limit int, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO search_cache (query_hash, query, limit_n, urls, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		queryHash, query, limit, string(data), time.Now().UTC(), int64(c.ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM search_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	var query string
	if expiredOnly {
		query = `DELETE FROM search_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`
	} else {
		query = `DELETE FROM search_cache`
	}
	_, err := c.db.Exec(query)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
