package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is internally consistent. Credentials are
// checked separately because local-only commands do not need them.
func (c *Config) Validate() error {
	if err := c.validateMyEpisodes(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	return nil
}

// ValidateCredentials reports whether tracker credentials are present.
func (c *Config) ValidateCredentials() error {
	if c.MyEpisodes.Username == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("myepisodes.username is required. Set %s or edit %s (create with 'showmark config init')", envMyEpisodesUsername, defaultPath)
	}
	if c.MyEpisodes.Password == "" {
		return fmt.Errorf("myepisodes.password is required. Set %s or edit the config file", envMyEpisodesPassword)
	}
	return nil
}

func (c *Config) validateMyEpisodes() error {
	if err := validateBaseURL(c.MyEpisodes.BaseURL); err != nil {
		return fmt.Errorf("myepisodes.base_url: %w", err)
	}
	if c.MyEpisodes.SearchRetries < 0 || c.MyEpisodes.SearchRetries > maxSearchRetries {
		return fmt.Errorf("myepisodes.search_retries must be between 0 and %d", maxSearchRetries)
	}
	if c.MyEpisodes.RequestsPerSecond < 0 {
		return errors.New("myepisodes.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if err := validateBaseURL(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	return nil
}

func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
