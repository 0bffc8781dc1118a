package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pinfetch/pinfetch/pkg/config"
	"github.com/pinfetch/pinfetch/pkg/models"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":3000" || cfg.Cache.CleanupDelay != 30*time.Second {
		t.Errorf("unexpected defaults: listen=%s delay=%v", cfg.Listen, cfg.Cache.CleanupDelay)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PINFETCH_LISTEN", ":9999")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("expected env override, got %s", cfg.Listen)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("search:\n  base_url: \"not a url\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger(config.LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Errorf("json logger: %v", err)
	}
	if _, err := newLogger(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := newLogger(config.LogConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormatHistoryRecords(t *testing.T) {
	if got := formatHistoryRecords(nil); got != "No history records found.\n" {
		t.Errorf("unexpected empty output %q", got)
	}

	out := formatHistoryRecords([]models.SearchRecord{{
		RequestID: "req-1",
		Query:     "a very long query that will not fit the column",
		Count:     3,
		Outcome:   models.OutcomeResults,
		Images:    3,
		Bytes:     2048,
		LatencyMs: 120,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}})
	for _, want := range []string{"req-1", "results", "2.0 kB", "120ms", "2024-05-01 12:00:00", "…"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCacheStats(t *testing.T) {
	out := formatCacheStats("cache", models.DirStats{Batches: 2, Files: 5, Bytes: 1500}, nil)
	if !strings.Contains(out, "Batches: 2") || !strings.Contains(out, "Search cache: disabled") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out = formatCacheStats("cache", models.DirStats{}, &models.CacheStats{Entries: 4, Hits: 7, Misses: 1})
	if !strings.Contains(out, "Hits:    7") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
