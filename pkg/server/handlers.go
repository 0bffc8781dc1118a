package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/pinfetch/pinfetch/pkg/cachedir"
	"github.com/pinfetch/pinfetch/pkg/fetch"
	"github.com/pinfetch/pinfetch/pkg/models"
)

// searchResult is the terminal state of one search request.
type searchResult struct {
	outcome models.Outcome
	req     models.SearchRequest
	images  []models.CachedImage
	batch   *cachedir.Batch
	err     error
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The history key is always ours; a client-supplied ID is only logged.
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	logger := s.logger.With("request_id", id)
	if clientID := r.Header.Get("X-Request-ID"); clientID != "" {
		logger = logger.With("client_request_id", clientID)
	}

	res := s.runSearch(r.Context(), logger, r)

	var body bytes.Buffer
	if err := s.renderResult(&body, res); err != nil {
		logger.Error("render failed", "error", err)
		if res.batch != nil {
			_ = res.batch.Discard()
			res.batch = nil
		}
		res.outcome, res.err = models.OutcomeError, err
		body.Reset()
		_ = s.render.Error(&body)
	}

	writeHTML(w, body.Bytes())

	if res.batch != nil {
		res.batch.Release()
		logger.Debug("cache cleanup scheduled", "batch", res.batch.ID, "delay", s.dirs.Delay())
	}

	s.record(logger, id, res, start)
}

// runSearch walks Validating → Searching → Downloading and never panics.
func (s *Server) runSearch(ctx context.Context, logger *log.Logger, r *http.Request) (res searchResult) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic in search handler", "panic", p)
			if res.batch != nil {
				_ = res.batch.Discard()
			}
			res = searchResult{outcome: models.OutcomeError, req: res.req, err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if err := r.ParseForm(); err != nil {
		return searchResult{outcome: models.OutcomeInvalidInput, err: fmt.Errorf("%w: %v", models.ErrInvalidInput, err)}
	}
	req, err := models.ParseSearchRequest(r.PostFormValue("query"), r.PostFormValue("number"))
	if err != nil {
		logger.Debug("invalid input", "error", err)
		return searchResult{outcome: models.OutcomeInvalidInput, err: err}
	}
	res.req = req

	logger.Info("searching", "query", req.Query, "count", req.Count)
	urls, err := s.searcher.Search(ctx, req.Query, req.Count)
	if err != nil {
		logger.Error("search failed", "query", req.Query, "error", err)
		return searchResult{outcome: models.OutcomeError, req: req, err: err}
	}
	if len(urls) == 0 {
		logger.Info("no results", "query", req.Query)
		return searchResult{outcome: models.OutcomeNoResults, req: req}
	}
	if len(urls) > req.Count {
		urls = urls[:req.Count]
	}

	batch, err := s.dirs.Acquire()
	if err != nil {
		logger.Error("acquire cache dir failed", "error", err)
		return searchResult{outcome: models.OutcomeError, req: req, err: err}
	}
	res.batch = batch

	images, err := s.fetcher.Fetch(ctx, batch.Dir, urls)
	if err != nil {
		logger.Error("download failed", "query", req.Query, "error", err)
		if derr := batch.Discard(); derr != nil {
			logger.Warn("discard cache dir failed", "batch", batch.ID, "error", derr)
		}
		return searchResult{outcome: models.OutcomeError, req: req, err: err}
	}
	for i := range images {
		images[i].URLPath = "/cache/" + batch.ID + "/" + fetch.FileName(images[i].Index)
	}

	return searchResult{outcome: models.OutcomeResults, req: req, images: images, batch: batch}
}

func (s *Server) renderResult(w io.Writer, res searchResult) error {
	switch res.outcome {
	case models.OutcomeInvalidInput:
		return s.render.InvalidInput(w)
	case models.OutcomeNoResults:
		return s.render.NoResults(w, res.req.Query)
	case models.OutcomeResults:
		return s.render.Results(w, res.req, res.images)
	default:
		return s.render.Error(w)
	}
}

func (s *Server) record(logger *log.Logger, id string, res searchResult, start time.Time) {
	latency := time.Since(start)

	var size int64
	for _, img := range res.images {
		size += img.Size
	}
	logger.Info("search handled",
		"outcome", res.outcome,
		"images", len(res.images),
		"size", humanize.Bytes(uint64(size)),
		"latency", latency.Round(time.Millisecond),
	)

	if s.history == nil {
		return
	}
	rec := models.SearchRecord{
		RequestID: id,
		Query:     res.req.Query,
		Count:     res.req.Count,
		Outcome:   res.outcome,
		Images:    len(res.images),
		Bytes:     size,
		LatencyMs: latency.Milliseconds(),
		CreatedAt: start.UTC(),
	}
	if res.err != nil {
		rec.Error = res.err.Error()
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.history.Log(context.Background(), rec); err != nil {
			logger.Warn("history log error", "error", err)
		}
	}()
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Server.FormPage != "" {
		http.ServeFile(w, r, s.cfg.Server.FormPage)
		return
	}
	var body bytes.Buffer
	if err := s.render.Form(&body); err != nil {
		s.logger.Error("render form failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, body.Bytes())
}

func (s *Server) handleCacheFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, err := s.dirs.Lookup(r.PathValue("id"), name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// The batch may be removed between Lookup and Open.
	f, err := os.Open(p)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mt.String())
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// writeHTML always answers 200: every outcome is a user-facing page.
func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
