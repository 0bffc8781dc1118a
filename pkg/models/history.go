package models

import "time"

// SearchRecord is one handled search as stored in the history log.
type SearchRecord struct {
	RequestID string    `json:"request_id"`
	Query     string    `json:"query"`
	Count     int       `json:"count"`
	Outcome   Outcome   `json:"outcome"`
	Images    int       `json:"images"`
	Bytes     int64     `json:"bytes"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryConfig controls the search history subsystem.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	DBPath        string `yaml:"db_path" env:"DB_PATH"`
	RetentionDays int    `yaml:"retention_days" env:"RETENTION_DAYS"`
	RecordErrors  bool   `yaml:"record_errors" env:"RECORD_ERRORS"` // store error text for failed searches
}

// HistoryQueryOpts specifies filters for querying the history log.
type HistoryQueryOpts struct {
	Query     string
	Outcome   Outcome
	Since     time.Time
	RequestID string
	Limit     int
}

// HistoryStat holds aggregate counts for an outcome/day combination.
type HistoryStat struct {
	Outcome Outcome
	Day     string
	Count   int
	Images  int
}
