package models

import "time"

// CacheEntry stores a cached search-API result.
type CacheEntry struct {
	QueryHash string        `json:"query_hash"`
	Query     string        `json:"query"`
	Limit     int           `json:"limit"`
	URLs      []string      `json:"urls"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
