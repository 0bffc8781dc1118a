package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pinfetch/pinfetch/pkg/config"
)

var version = "dev"

// logLevel is the --log-level override shared by every subcommand.
var logLevel string

func main() {
	root := &cobra.Command{
		Use:           "pinfetch",
		Short:         "Pinfetch: Pinterest image search with a self-cleaning local cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(),
		newCacheCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path (if present), applies PINFETCH_* overrides and validates.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, err
	}
	if err := config.FromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	levelName := cfg.Level
	if logLevel != "" {
		levelName = logLevel
	}
	if levelName == "" {
		levelName = "info"
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	var formatter log.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "pinfetch",
	}), nil
}
