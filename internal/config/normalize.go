package config

import (
	"fmt"
	"os"
	"strings"
)

// Normalize expands paths, applies environment fallbacks, and parses retention
// windows. Load calls it; tests that build a Config by hand call it directly.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMyEpisodes()
	c.normalizeTMDB()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.MetricsFile, err = expandPath(strings.TrimSpace(c.Paths.MetricsFile)); err != nil {
		return fmt.Errorf("paths.metrics_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMyEpisodes() {
	c.MyEpisodes.BaseURL = strings.TrimRight(strings.TrimSpace(c.MyEpisodes.BaseURL), "/")
	if c.MyEpisodes.BaseURL == "" {
		c.MyEpisodes.BaseURL = defaultMyEpisodesBaseURL
	}
	c.MyEpisodes.Username = strings.TrimSpace(c.MyEpisodes.Username)
	if c.MyEpisodes.Username == "" {
		if value, ok := os.LookupEnv(envMyEpisodesUsername); ok {
			c.MyEpisodes.Username = strings.TrimSpace(value)
		}
	}
	if c.MyEpisodes.Password == "" {
		if value, ok := os.LookupEnv(envMyEpisodesPassword); ok {
			c.MyEpisodes.Password = value
		}
	}
	if c.MyEpisodes.TimeoutSeconds <= 0 {
		c.MyEpisodes.TimeoutSeconds = defaultMyEpisodesTimeout
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv(envTMDBAPIKey); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.LookupTTL) == "" {
		c.Cache.LookupTTL = defaultLookupTTL
	}
	if strings.TrimSpace(c.Cache.ItemsTTL) == "" {
		c.Cache.ItemsTTL = defaultItemsTTL
	}
	var err error
	if c.Cache.lookupTTL, err = ParseRetention(c.Cache.LookupTTL); err != nil {
		return fmt.Errorf("cache.lookup_ttl: %w", err)
	}
	if c.Cache.itemsTTL, err = ParseRetention(c.Cache.ItemsTTL); err != nil {
		return fmt.Errorf("cache.items_ttl: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
