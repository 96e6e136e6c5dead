package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showmark/internal/logging"
	"showmark/internal/statedb"
)

// Entry is one cached payload.
type Entry struct {
	Key       string
	Operation string
	Payload   []byte
	StoredAt  time.Time
}

// Stats summarizes cache contents for diagnostics.
type Stats struct {
	Entries     int
	Operations  map[string]int
	OldestEntry time.Time
	NewestEntry time.Time
}

// Store reads and writes cache entries in the state database.
type Store struct {
	db     *statedb.Store
	logger *slog.Logger
	clock  func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for staleness checks and writes.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Store over an open state database.
func New(db *statedb.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: logging.NewComponentLogger(logger, "cachestore"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the payload for key when it was stored less than ttl ago. A
// ttl <= 0 treats every entry as stale.
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	entry, ok := s.lookup(ctx, key)
	if !ok {
		return nil, false
	}
	age := s.clock().Sub(entry.StoredAt)
	if ttl <= 0 || age >= ttl {
		s.logger.Debug("cache entry stale",
			logging.String("operation", entry.Operation),
			logging.Duration("age", age),
			logging.Duration("ttl", ttl))
		return nil, false
	}
	return entry.Payload, true
}

func (s *Store) lookup(ctx context.Context, key string) (Entry, bool) {
	if s == nil || s.db == nil {
		return Entry{}, false
	}
	var (
		entry     Entry
		storedRaw string
	)
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT key, operation, payload, stored_at FROM cache_entries WHERE key = ?`, key)
	err := row.Scan(&entry.Key, &entry.Operation, &entry.Payload, &storedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false
	}
	if err != nil {
		s.warnReadFailure(key, err)
		return Entry{}, false
	}
	storedAt, err := statedb.ParseTime(storedRaw)
	if err != nil {
		s.warnReadFailure(key, fmt.Errorf("parse stored_at %q: %w", storedRaw, err))
		return Entry{}, false
	}
	entry.StoredAt = storedAt
	return entry, true
}

func (s *Store) warnReadFailure(key string, err error) {
	logging.WarnWithContext(s.logger, "cache read failed; treating as miss", "cache_read_failed",
		logging.String("cache_key", key),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run `showmark cache clear` if the state database is damaged"),
		logging.String(logging.FieldImpact, "response will be fetched from the network"))
}

// Put upserts the payload for key, stamping it with the current time.
func (s *Store) Put(ctx context.Context, key, operation string, payload []byte) error {
	if s == nil || s.db == nil {
		return errors.New("cache store unavailable")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is empty")
	}
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.db.ExecWithRetry(ctx,
		`INSERT INTO cache_entries (key, operation, payload, stored_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET operation = excluded.operation, payload = excluded.payload, stored_at = excluded.stored_at`,
		key, operation, payload, statedb.FormatTime(s.clock()))
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries stored more than olderThan ago. A zero olderThan
// removes everything.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if olderThan <= 0 {
		res, err = s.db.ExecWithRetry(ctx, `DELETE FROM cache_entries`)
	} else {
		cutoff := statedb.FormatTime(s.clock().Add(-olderThan))
		res, err = s.db.ExecWithRetry(ctx, `DELETE FROM cache_entries WHERE stored_at < ?`, cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.DB().QueryRowContext(ctx, `SELECT COUNT(1) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// Stats groups stored entries by operation.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT operation, COUNT(1), MIN(stored_at), MAX(stored_at) FROM cache_entries GROUP BY operation ORDER BY operation`)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{Operations: make(map[string]int)}
	for rows.Next() {
		var (
			operation      string
			count          int
			oldest, newest string
		)
		if err := rows.Scan(&operation, &count, &oldest, &newest); err != nil {
			return Stats{}, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.Operations[operation] = count
		stats.Entries += count
		if t, err := statedb.ParseTime(oldest); err == nil && (stats.OldestEntry.IsZero() || t.Before(stats.OldestEntry)) {
			stats.OldestEntry = t
		}
		if t, err := statedb.ParseTime(newest); err == nil && t.After(stats.NewestEntry) {
			stats.NewestEntry = t
		}
	}
	return stats, rows.Err()
}
