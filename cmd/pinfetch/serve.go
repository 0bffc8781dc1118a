package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cachepkg "github.com/pinfetch/pinfetch/pkg/cache/sqlite"
	"github.com/pinfetch/pinfetch/pkg/cachedir"
	"github.com/pinfetch/pinfetch/pkg/fetch"
	"github.com/pinfetch/pinfetch/pkg/history"
	"github.com/pinfetch/pinfetch/pkg/search"
	"github.com/pinfetch/pinfetch/pkg/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}

			dirs, err := cachedir.New(cfg.Cache.Dir, cfg.Cache.CleanupDelay, logger.WithPrefix("cachedir"))
			if err != nil {
				return fmt.Errorf("init cache dir: %w", err)
			}
			defer func() {
				if err := dirs.Close(); err != nil {
					logger.Warn("flush cache dir", "error", err)
				}
			}()

			var searcher search.Searcher = search.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout)
			if cfg.Search.Cache.Enabled {
				cache, err := cachepkg.New(cfg.DBPath, cfg.Search.Cache.TTL)
				if err != nil {
					return fmt.Errorf("init search cache: %w", err)
				}
				defer func() { _ = cache.Close() }()
				searcher = search.NewCached(searcher, cache, logger.WithPrefix("search"))
			}

			var hist *history.Logger
			if cfg.History.Enabled {
				hist, err = history.New(cfg.History)
				if err != nil {
					return fmt.Errorf("init history: %w", err)
				}
				defer func() { _ = hist.Close() }()
			}

			fetcher := fetch.New(fetch.Options{
				Concurrency: cfg.Download.Concurrency,
				Timeout:     cfg.Download.Timeout,
				MaxBytes:    cfg.Download.MaxBytes,
			}, logger.WithPrefix("fetch"))

			srv, err := server.New(cfg, searcher, fetcher, dirs, hist, logger)
			if err != nil {
				return fmt.Errorf("init server: %w", err)
			}
			// Runs before the deferred hist.Close above.
			defer srv.Wait()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting pinfetch",
				"config", configPath,
				"upstream", cfg.Search.BaseURL,
				"cache_dir", cfg.Cache.Dir,
				"cleanup_delay", cfg.Cache.CleanupDelay,
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pinfetch.yaml", "path to config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "override listen address")
	return cmd
}
