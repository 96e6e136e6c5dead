package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and output file configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	MetricsFile string `toml:"metrics_file"`
}

// MyEpisodes contains the tracker account and transport settings.
type MyEpisodes struct {
	BaseURL           string  `toml:"base_url"`
	Username          string  `toml:"username"`
	Password          string  `toml:"password"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	SearchRetries     int     `toml:"search_retries"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// TMDB contains configuration for the canonical series name lookup.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Cache contains retention windows for cached remote responses. Values accept
// Go durations ("90m") or the "N hours" / "N days" form.
type Cache struct {
	LookupTTL string `toml:"lookup_ttl"`
	ItemsTTL  string `toml:"items_ttl"`

	lookupTTL time.Duration
	itemsTTL  time.Duration
}

// Run contains per-run behaviour switches.
type Run struct {
	DryRun bool `toml:"dry_run"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for showmark.
//
// Configuration sections by subsystem:
//   - Paths: state database, logs, and metrics output
//   - MyEpisodes: tracker credentials, timeouts, retries, pacing
//   - TMDB: canonical series name lookup
//   - Cache: retention windows for cached lookups and item lists
//   - Run: dry-run switch
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	MyEpisodes MyEpisodes `toml:"myepisodes"`
	TMDB       TMDB       `toml:"tmdb"`
	Cache      Cache      `toml:"cache"`
	Run        Run        `toml:"run"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("showmark.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding the resolution table and response cache.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, databaseFileName)
}

// LookupTTL returns the retention window for cached canonical name lookups.
func (c *Config) LookupTTL() time.Duration {
	return c.Cache.lookupTTL
}

// ItemsTTL returns the retention window for cached remote item lists.
func (c *Config) ItemsTTL() time.Duration {
	return c.Cache.itemsTTL
}

// RequestTimeout returns the HTTP timeout applied to tracker and TMDB requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MyEpisodes.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// The file may hold credentials, so it is created owner-readable only.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
