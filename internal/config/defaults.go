package config

const (
	defaultConfigPath        = "~/.config/showmark/config.toml"
	defaultStateDir          = "~/.local/share/showmark"
	defaultLogDir            = "~/.local/share/showmark/logs"
	databaseFileName         = "showmark.db"
	defaultMyEpisodesBaseURL = "http://myepisodes.com"
	defaultMyEpisodesTimeout = 30
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultLookupTTL         = "7 days"
	defaultItemsTTL          = "2 hours"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxSearchRetries         = 5
	envMyEpisodesUsername    = "MYEPISODES_USERNAME"
	envMyEpisodesPassword    = "MYEPISODES_PASSWORD"
	envTMDBAPIKey            = "TMDB_API_KEY"
)

// Default returns a Config populated with repository defaults. Retention
// windows are parsed during Normalize.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		MyEpisodes: MyEpisodes{
			BaseURL:        defaultMyEpisodesBaseURL,
			TimeoutSeconds: defaultMyEpisodesTimeout,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Cache: Cache{
			LookupTTL: defaultLookupTTL,
			ItemsTTL:  defaultItemsTTL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
