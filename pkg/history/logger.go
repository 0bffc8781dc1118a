package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pinfetch/pinfetch/pkg/models"
)

// Logger writes and queries search records in a dedicated SQLite database.
type Logger struct {
	db   *sql.DB
	cfg  models.HistoryConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the history SQLite database and creates the schema.
func New(cfg models.HistoryConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS search_history (
		request_id  TEXT PRIMARY KEY,
		query       TEXT NOT NULL,
		count       INTEGER NOT NULL,
		outcome     TEXT NOT NULL,
		images      INTEGER NOT NULL DEFAULT 0,
		bytes       INTEGER NOT NULL DEFAULT 0,
		latency_ms  INTEGER NOT NULL DEFAULT 0,
		error       TEXT,
		created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_created ON search_history(created_at)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_outcome ON search_history(outcome)`)
	return err
}

// Log inserts a search record.
func (l *Logger) Log(ctx context.Context, rec models.SearchRecord) error {
	if l == nil || l.db == nil {
		return nil
	}

	errText := rec.Error
	if !l.cfg.RecordErrors {
		errText = ""
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO search_history
		(request_id, query, count, outcome, images, bytes, latency_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Query, rec.Count, string(rec.Outcome),
		rec.Images, rec.Bytes, rec.LatencyMs, errText, rec.CreatedAt.UTC(),
	)
	return err
}

// Query returns search records matching the given options, newest first.
func (l *Logger) Query(ctx context.Context, opts models.HistoryQueryOpts) ([]models.SearchRecord, error) {
	q := `SELECT request_id, query, count, outcome, images, bytes, latency_ms, error, created_at
		FROM search_history WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Query != "" {
		q += " AND query LIKE ?"
		args = append(args, "%"+opts.Query+"%")
	}
	if opts.Outcome != "" {
		q += " AND outcome = ?"
		args = append(args, string(opts.Outcome))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var r models.SearchRecord
		var outcome string
		var errText sql.NullString
		if err := rows.Scan(
			&r.RequestID, &r.Query, &r.Count, &outcome,
			&r.Images, &r.Bytes, &r.LatencyMs, &errText, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.Outcome = models.Outcome(outcome)
		r.Error = errText.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats returns aggregate counts grouped by outcome and day.
func (l *Logger) Stats(ctx context.Context) ([]models.HistoryStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT outcome, date(created_at) as day, count(*) as cnt, coalesce(sum(images), 0)
		 FROM search_history GROUP BY outcome, day ORDER BY day DESC, outcome`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var stats []models.HistoryStat
	for rows.Next() {
		var s models.HistoryStat
		var outcome string
		var day sql.NullString
		if err := rows.Scan(&outcome, &day, &s.Count, &s.Images); err != nil {
			return nil, fmt.Errorf("scan history stat: %w", err)
		}
		s.Outcome = models.Outcome(outcome)
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes records older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
