package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzhttp"

	"github.com/pinfetch/pinfetch/pkg/cachedir"
	"github.com/pinfetch/pinfetch/pkg/config"
	"github.com/pinfetch/pinfetch/pkg/history"
	"github.com/pinfetch/pinfetch/pkg/models"
	"github.com/pinfetch/pinfetch/pkg/render"
	"github.com/pinfetch/pinfetch/pkg/search"
)

// Fetcher downloads urls into dir as 1.jpg, 2.jpg, ... in order.
// *fetch.Downloader is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, dir string, urls []string) ([]models.CachedImage, error)
}

// Server is the pinfetch HTTP front end.
type Server struct {
	cfg      *config.Config
	searcher search.Searcher
	fetcher  Fetcher
	dirs     *cachedir.Manager
	history  *history.Logger
	render   *render.Renderer
	logger   *log.Logger
	mux      *http.ServeMux
	handler  http.Handler

	pending sync.WaitGroup // in-flight history writes
}

// New creates a Server wired with all dependencies. hist may be nil.
func New(cfg *config.Config, s search.Searcher, f Fetcher, d *cachedir.Manager, hist *history.Logger, logger *log.Logger) (*Server, error) {
	r, err := render.New(cfg.Server.Footer)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	srv := &Server{
		cfg:      cfg,
		searcher: s,
		fetcher:  f,
		dirs:     d,
		history:  hist,
		render:   r,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	srv.mux.HandleFunc("GET /{$}", srv.handleForm)
	srv.mux.HandleFunc("POST /search-pinterest", srv.handleSearch)
	srv.mux.HandleFunc("GET /cache/{id}/{name}", srv.handleCacheFile)
	srv.mux.HandleFunc("GET /healthz", srv.handleHealth)

	srv.handler = srv.mux
	if cfg.Server.Gzip {
		srv.handler = gzhttp.GzipHandler(srv.mux)
	}
	return srv, nil
}

// Wait blocks until every queued history write has finished. Call it after
// the listener has stopped and before closing the history logger.
func (s *Server) Wait() {
	s.pending.Wait()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("pinfetch listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	}
}
