package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"showmark/internal/cachestore"
	"showmark/internal/config"
	"showmark/internal/logging"
	"showmark/internal/metrics"
	"showmark/internal/myepisodes"
	"showmark/internal/resolver"
	"showmark/internal/respcache"
	"showmark/internal/showids"
	"showmark/internal/statedb"
	"showmark/internal/tmdb"
)

const (
	lookupOperation     = "tmdb.canonical_name"
	searchRetryInterval = 2 * time.Second
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// appState bundles the collaborators shared by commands that touch the state
// database.
type appState struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *statedb.Store
	cache   *cachestore.Store
	ids     *showids.Store
	metrics *metrics.Recorder
}

func (c *commandContext) withState(ctx context.Context, fn func(*appState) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	db, err := statedb.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	state := &appState{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		cache:   cachestore.New(db, logger),
		ids:     showids.New(db),
		metrics: metrics.New(),
	}
	return fn(state)
}

func (s *appState) trackerClient() (*myepisodes.Client, error) {
	return myepisodes.New(s.cfg.MyEpisodes.BaseURL,
		myepisodes.WithTimeout(s.cfg.RequestTimeout()),
		myepisodes.WithRateLimit(s.cfg.MyEpisodes.RequestsPerSecond),
		myepisodes.WithSearchRetries(s.cfg.MyEpisodes.SearchRetries, searchRetryInterval),
		myepisodes.WithLogger(s.logger),
	)
}

// canonicalLookup returns the cached TMDB name lookup, or nil when no API key
// is configured.
func (s *appState) canonicalLookup() (resolver.NameLookup, error) {
	if s.cfg.TMDB.APIKey == "" {
		return nil, nil
	}
	client, err := tmdb.New(s.cfg.TMDB.APIKey, s.cfg.TMDB.BaseURL, s.cfg.TMDB.Language,
		tmdb.WithTimeout(s.cfg.RequestTimeout()))
	if err != nil {
		return nil, err
	}
	cached := respcache.Wrap[tmdb.Query, string](s.cache, lookupOperation, s.cfg.LookupTTL(), client.CanonicalName,
		respcache.WithLogger(s.logger),
		respcache.WithObserver(s.metrics.CacheLookup))
	return resolver.NameLookup(cached), nil
}

func (s *appState) resolver() (*resolver.Resolver, error) {
	lookup, err := s.canonicalLookup()
	if err != nil {
		return nil, err
	}
	return resolver.New(s.ids, lookup, s.logger,
		resolver.WithObserver(func(source resolver.Source) {
			s.metrics.Resolution(string(source))
		}),
	), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
