package models

// CachedImage is one downloaded image stored in a request's batch directory.
type CachedImage struct {
	Index     int    `json:"index"`      // 1-based position in the upstream result list
	SourceURL string `json:"source_url"` // original upstream URL
	Path      string `json:"path"`       // file path on disk
	URLPath   string `json:"url_path"`   // path the file is served under
	Size      int64  `json:"size"`
	MIME      string `json:"mime"`
}

// DirStats describes the contents of the scratch cache root.
type DirStats struct {
	Batches int   `json:"batches"`
	Pending int   `json:"pending"` // batches with a deletion timer armed
	Files   int   `json:"files"`
	Bytes   int64 `json:"bytes"`
}
