package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pinfetch/pinfetch/pkg/history"
	"github.com/pinfetch/pinfetch/pkg/models"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query and manage the search history log",
	}

	cmd.AddCommand(
		newHistorySearchCmd(),
		newHistoryStatsCmd(),
		newHistoryCleanupCmd(),
	)
	return cmd
}

func newHistorySearchCmd() *cobra.Command {
	var (
		configPath string
		query      string
		outcome    string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List recorded searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.HistoryQueryOpts{
				Query:   query,
				Outcome: models.Outcome(outcome),
				Limit:   limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			records, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatHistoryRecords(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pinfetch.yaml", "path to config file")
	cmd.Flags().StringVar(&query, "query", "", "filter by query substring")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome (results, no_results, invalid_input, error)")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max records to return")

	return cmd
}

func newHistoryStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show search counts by outcome and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatHistoryStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pinfetch.yaml", "path to config file")
	return cmd
}

func newHistoryCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history records older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d history records.\n", deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pinfetch.yaml", "path to config file")
	return cmd
}

// openHistory opens the history database even when recording is disabled.
func openHistory(configPath string) (*history.Logger, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	l, err := history.New(cfg.History)
	if err != nil {
		return nil, nil, fmt.Errorf("open history db: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func formatHistoryRecords(records []models.SearchRecord) string {
	if len(records) == 0 {
		return "No history records found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-24s %5s %-13s %6s %9s %8s %-20s\n",
		"REQUEST ID", "QUERY", "COUNT", "OUTCOME", "IMAGES", "SIZE", "LATENCY", "TIME")
	b.WriteString(strings.Repeat("-", 130) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-38s %-24s %5d %-13s %6d %9s %6dms %-20s\n",
			r.RequestID, truncate(r.Query, 24), r.Count, r.Outcome, r.Images,
			humanize.Bytes(uint64(r.Bytes)), r.LatencyMs,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatHistoryStats(stats []models.HistoryStat) string {
	if len(stats) == 0 {
		return "No history stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-15s %-12s %8s %8s\n", "OUTCOME", "DAY", "COUNT", "IMAGES")
	b.WriteString(strings.Repeat("-", 46) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-15s %-12s %8d %8d\n", s.Outcome, s.Day, s.Count, s.Images)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
