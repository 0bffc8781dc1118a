package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	cachepkg "github.com/pinfetch/pinfetch/pkg/cache/sqlite"
	"github.com/pinfetch/pinfetch/pkg/cachedir"
	"github.com/pinfetch/pinfetch/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the search cache and image directory",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			dir, err := cachedir.Scan(cfg.Cache.Dir)
			if err != nil {
				return err
			}

			var search *models.CacheStats
			if cfg.Search.Cache.Enabled {
				c, err := cachepkg.New(cfg.DBPath, cfg.Search.Cache.TTL)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()

				s, err := c.Stats()
				if err != nil {
					return err
				}
				search = &s
			}

			fmt.Print(formatCacheStats(cfg.Cache.Dir, dir, search))
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear search cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := cachepkg.New(cfg.DBPath, cfg.Search.Cache.TTL)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Clear(expiredOnly); err != nil {
				return err
			}
			if expiredOnly {
				fmt.Println("Expired search cache entries cleared.")
			} else {
				fmt.Println("All search cache entries cleared.")
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every image batch left in the cache directory",
		Long: "Delete every image batch left in the cache directory.\n" +
			"Run this only while no server is using the directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			stats, err := cachedir.Purge(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d batches (%d files, %s).\n",
				stats.Batches, stats.Files, humanize.Bytes(uint64(stats.Bytes)))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pinfetch.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd, purgeCmd)
	return cmd
}

func formatCacheStats(root string, dir models.DirStats, search *models.CacheStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image directory: %s\n", root)
	fmt.Fprintf(&b, "  Batches: %d\n", dir.Batches)
	fmt.Fprintf(&b, "  Files:   %d\n", dir.Files)
	fmt.Fprintf(&b, "  Size:    %s\n", humanize.Bytes(uint64(dir.Bytes)))
	if search == nil {
		b.WriteString("Search cache: disabled\n")
		return b.String()
	}
	b.WriteString("Search cache:\n")
	fmt.Fprintf(&b, "  Entries: %d\n", search.Entries)
	fmt.Fprintf(&b, "  Hits:    %d\n", search.Hits)
	fmt.Fprintf(&b, "  Misses:  %d\n", search.Misses)
	return b.String()
}
