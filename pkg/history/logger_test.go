package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pinfetch/pinfetch/pkg/models"
)

func tempCfg(t *testing.T) models.HistoryConfig {
	t.Helper()
	return models.HistoryConfig{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "history_test.db"),
		RetentionDays: 30,
		RecordErrors:  true,
	}
}

func mustNew(t *testing.T, cfg models.HistoryConfig) *Logger {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleRecord(id string) models.SearchRecord {
	return models.SearchRecord{
		RequestID: id,
		Query:     "cats",
		Count:     3,
		Outcome:   models.OutcomeResults,
		Images:    3,
		Bytes:     4096,
		LatencyMs: 320,
		CreatedAt: time.Now(),
	}
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	if err := l.Log(ctx, sampleRecord("req-001")); err != nil {
		t.Fatalf("Log: %v", err)
	}

	records, err := l.Query(ctx, models.HistoryQueryOpts{Query: "cat"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.RequestID != "req-001" || r.Outcome != models.OutcomeResults || r.Images != 3 {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestQueryByOutcome(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleRecord("ok"))
	failed := sampleRecord("failed")
	failed.Outcome = models.OutcomeError
	failed.Images = 0
	failed.Error = "image 2: upstream returned 404"
	_ = l.Log(ctx, failed)

	records, err := l.Query(ctx, models.HistoryQueryOpts{Outcome: models.OutcomeError})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1, got %d", len(records))
	}
	if records[0].Error != failed.Error {
		t.Errorf("expected error text to be stored, got %q", records[0].Error)
	}
}

func TestErrorsNotRecordedByDefault(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RecordErrors = false
	l := mustNew(t, cfg)
	ctx := context.Background()

	rec := sampleRecord("failed")
	rec.Outcome = models.OutcomeError
	rec.Error = "boom"
	_ = l.Log(ctx, rec)

	records, _ := l.Query(ctx, models.HistoryQueryOpts{RequestID: "failed"})
	if len(records) != 1 {
		t.Fatalf("expected 1, got %d", len(records))
	}
	if records[0].Error != "" {
		t.Errorf("error text should be dropped, got %q", records[0].Error)
	}
}

func TestQueryLimit(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = l.Log(ctx, sampleRecord(fmt.Sprintf("req-%d", i)))
	}

	records, err := l.Query(ctx, models.HistoryQueryOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleRecord("a"))
	_ = l.Log(ctx, sampleRecord("b"))
	none := sampleRecord("c")
	none.Outcome = models.OutcomeNoResults
	none.Images = 0
	_ = l.Log(ctx, none)

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[models.Outcome]int{}
	images := map[models.Outcome]int{}
	for _, s := range stats {
		counts[s.Outcome] += s.Count
		images[s.Outcome] += s.Images
	}
	if counts[models.OutcomeResults] != 2 || counts[models.OutcomeNoResults] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if images[models.OutcomeResults] != 6 {
		t.Errorf("expected 6 images, got %d", images[models.OutcomeResults])
	}
}

func TestCleanup(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RetentionDays = 1
	l := mustNew(t, cfg)
	ctx := context.Background()

	old := sampleRecord("old")
	old.CreatedAt = time.Now().AddDate(0, 0, -3)
	_ = l.Log(ctx, old)
	_ = l.Log(ctx, sampleRecord("new"))

	deleted, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	records, _ := l.Query(ctx, models.HistoryQueryOpts{})
	if len(records) != 1 || records[0].RequestID != "new" {
		t.Errorf("unexpected remaining records: %+v", records)
	}
}
