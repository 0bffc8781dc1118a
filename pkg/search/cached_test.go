package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cachepkg "github.com/pinfetch/pinfetch/pkg/cache/sqlite"
)

type countingSearcher struct {
	calls int
	urls  []string
}

func (s *countingSearcher) Search(ctx context.Context, query string, limit int) ([]string, error) {
	s.calls++
	return s.urls, nil
}

func newTestCache(t *testing.T) *cachepkg.Cache {
	t.Helper()
	c, err := cachepkg.New(filepath.Join(t.TempDir(), "search.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedServesSecondCallFromCache(t *testing.T) {
	next := &countingSearcher{urls: []string{"https://i.example/1.jpg"}}
	s := NewCached(next, newTestCache(t), nil)

	for i := 0; i < 2; i++ {
		urls, err := s.Search(context.Background(), "cats", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(urls) != 1 {
			t.Fatalf("expected 1 url, got %v", urls)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls)
	}
}

func TestCachedSkipsEmptyResults(t *testing.T) {
	next := &countingSearcher{}
	s := NewCached(next, newTestCache(t), nil)

	_, _ = s.Search(context.Background(), "nothing", 2)
	_, _ = s.Search(context.Background(), "nothing", 2)
	if next.calls != 2 {
		t.Errorf("empty results must not be cached, got %d upstream calls", next.calls)
	}
}
