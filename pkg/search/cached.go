package search

import (
	"context"

	"github.com/charmbracelet/log"
	cachepkg "github.com/pinfetch/pinfetch/pkg/cache/sqlite"
)

// Cached decorates a Searcher with the SQLite result cache.
type Cached struct {
	next   Searcher
	cache  *cachepkg.Cache
	logger *log.Logger
}

// NewCached wraps next so that non-empty results are served from c until they expire.
func NewCached(next Searcher, c *cachepkg.Cache, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{next: next, cache: c, logger: logger}
}

// Search implements Searcher.
func (s *Cached) Search(ctx context.Context, query string, limit int) ([]string, error) {
	hash := cachepkg.HashQuery(query, limit)
	if urls, ok := s.cache.Get(hash); ok {
		s.logger.Debug("search cache hit", "query", query, "limit", limit)
		return urls, nil
	}

	urls, err := s.next.Search(ctx, query, limit)
	if err != nil || len(urls) == 0 {
		return urls, err
	}

	if err := s.cache.Put(hash, query, limit, urls); err != nil {
		s.logger.Warn("search cache put failed", "query", query, "error", err)
	}
	return urls, nil
}
