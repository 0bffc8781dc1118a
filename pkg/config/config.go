package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pinfetch/pinfetch/pkg/models"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "PINFETCH_"

// Config holds all pinfetch configuration.
type Config struct {
	Listen   string               `yaml:"listen" env:"LISTEN"`
	DBPath   string               `yaml:"db_path" env:"DB_PATH"`
	Log      LogConfig            `yaml:"log" envPrefix:"LOG_"`
	Server   ServerConfig         `yaml:"server" envPrefix:"SERVER_"`
	Search   SearchConfig         `yaml:"search" envPrefix:"SEARCH_"`
	Download DownloadConfig       `yaml:"download" envPrefix:"DOWNLOAD_"`
	Cache    CacheConfig          `yaml:"cache" envPrefix:"CACHE_"`
	History  models.HistoryConfig `yaml:"history" envPrefix:"HISTORY_"`
}

// LogConfig controls the process logger.
// Format is "text" (default), "json" or "logfmt".
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// ServerConfig controls the HTML surface.
type ServerConfig struct {
	FormPage string `yaml:"form_page" env:"FORM_PAGE"` // optional file served at GET /
	Footer   string `yaml:"footer" env:"FOOTER"`
	Gzip     bool   `yaml:"gzip" env:"GZIP"`
}

// SearchConfig defines the upstream image-search API.
type SearchConfig struct {
	BaseURL string            `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration     `yaml:"timeout" env:"TIMEOUT"`
	Cache   SearchCacheConfig `yaml:"cache" envPrefix:"CACHE_"`
}

// SearchCacheConfig controls the search-result cache.
type SearchCacheConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

// DownloadConfig controls image downloads.
type DownloadConfig struct {
	Concurrency int           `yaml:"concurrency" env:"CONCURRENCY"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxBytes    int64         `yaml:"max_bytes" env:"MAX_BYTES"`
}

// CacheConfig controls the scratch directory holding downloaded images.
type CacheConfig struct {
	Dir          string        `yaml:"dir" env:"DIR"`
	CleanupDelay time.Duration `yaml:"cleanup_delay" env:"CLEANUP_DELAY"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":3000",
		DBPath: "pinfetch.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Footer: "© 2024 Herudev. All rights reserved",
			Gzip:   true,
		},
		Search: SearchConfig{
			BaseURL: "https://itsaryan.onrender.com",
			Cache: SearchCacheConfig{
				Enabled: false,
				TTL:     10 * time.Minute,
			},
		},
		Download: DownloadConfig{
			Concurrency: 1,
		},
		Cache: CacheConfig{
			Dir:          "cache",
			CleanupDelay: 30 * time.Second,
		},
		History: models.HistoryConfig{
			Enabled:       false,
			DBPath:        "pinfetch-history.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like Load but falls back to Default when the file does not exist.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// FromEnv applies PINFETCH_* environment overrides on top of cfg.
func FromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	u, err := url.Parse(c.Search.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid search base_url %q", c.Search.BaseURL)
	}
	if c.Cache.Dir == "" {
		return errors.New("cache dir is empty")
	}
	if c.Cache.CleanupDelay < 0 {
		return fmt.Errorf("negative cleanup_delay %v", c.Cache.CleanupDelay)
	}
	if c.Download.Concurrency < 1 {
		c.Download.Concurrency = 1
	}
	if c.Download.MaxBytes < 0 {
		return fmt.Errorf("negative download max_bytes %d", c.Download.MaxBytes)
	}
	return nil
}
