package sqlite

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHashQuery(t *testing.T) {
	h1 := HashQuery("cats", 3)
	h2 := HashQuery("  Cats ", 3)
	h3 := HashQuery("cats", 4)
	h4 := HashQuery("dogs", 3)

	if h1 != h2 {
		t.Error("queries differing only in case and whitespace should hash the same")
	}
	if h1 == h3 {
		t.Error("different limit should produce different hash")
	}
	if h1 == h4 {
		t.Error("different query should produce different hash")
	}
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	hash := HashQuery("cats", 2)
	urls := []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}

	if err := c.Put(hash, "cats", 2, urls); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(hash)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != urls[0] || got[1] != urls[1] {
		t.Errorf("unexpected urls: %v", got)
	}

	if _, ok := c.Get(HashQuery("cats", 5)); ok {
		t.Error("expected cache miss for different limit")
	}
}

func TestTTLExpiration(t *testing.T) {
	c := newTestCache(t, 1*time.Millisecond)
	hash := "testhash"

	if err := c.Put(hash, "cats", 1, []string{"u"}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get(hash); ok {
		t.Error("expected cache miss after TTL expiration")
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t, time.Hour)

	_ = c.Put("h1", "cats", 1, []string{"u"})
	c.Get("h1") // hit
	c.Get("h2") // miss

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, time.Hour)

	_ = c.Put("h1", "cats", 1, []string{"u"})
	_ = c.Put("h2", "dogs", 1, []string{"u"})

	if err := c.Clear(true); err != nil {
		t.Fatal(err)
	}
	stats, _ := c.Stats()
	if stats.Entries != 2 {
		t.Errorf("expired-only clear should keep fresh entries, got %d", stats.Entries)
	}

	if err := c.Clear(false); err != nil {
		t.Fatal(err)
	}
	stats, _ = c.Stats()
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
}
