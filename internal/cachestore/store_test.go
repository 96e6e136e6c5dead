package cachestore_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"showmark/internal/cachestore"
	"showmark/internal/logging"
	"showmark/internal/testsupport"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newStore(t *testing.T) (*cachestore.Store, *fakeClock) {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	return cachestore.New(db, logging.NewNop(), cachestore.WithClock(clock.Now)), clock
}

func TestPutGetRoundTrip(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	payload := []byte{0x00, 0xff, 'c', 'h', 'u', 'c', 'k'}
	if err := store.Put(ctx, "k1", "tmdb.canonical_name", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	clock.now = clock.now.Add(59 * time.Minute)
	got, ok := store.Get(ctx, "k1", time.Hour)
	if !ok {
		t.Fatal("expected hit within ttl")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %v vs %v", got, payload)
	}
}

func TestGetTreatsExpiredEntriesAsMiss(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k1", "op", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	clock.now = clock.now.Add(time.Hour)
	if _, ok := store.Get(ctx, "k1", time.Hour); ok {
		t.Fatal("expected entry aged exactly ttl to be stale")
	}
	if _, ok := store.Get(ctx, "k1", 0); ok {
		t.Fatal("expected zero ttl to always miss")
	}
	if _, ok := store.Get(ctx, "missing", time.Hour); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestPutSupersedesStaleEntry(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k1", "op", []byte("old")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	clock.now = clock.now.Add(48 * time.Hour)
	if err := store.Put(ctx, "k1", "op", []byte("new")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	got, ok := store.Get(ctx, "k1", time.Hour)
	if !ok || string(got) != "new" {
		t.Fatalf("expected refreshed payload, got %q ok=%v", got, ok)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected upsert to keep a single row, got %d", count)
	}
}

func TestGetFailsOpenWhenDatabaseClosed(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := cachestore.New(db, logger)
	ctx := context.Background()
	if err := store.Put(ctx, "k1", "op", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_ = db.Close()

	if _, ok := store.Get(ctx, "k1", time.Hour); ok {
		t.Fatal("expected miss after database closed")
	}
	if !bytes.Contains(buf.Bytes(), []byte("event_type=cache_read_failed")) {
		t.Fatalf("expected warning to be logged, got %q", buf.String())
	}
	if err := store.Put(ctx, "k2", "op", []byte("v")); err == nil {
		t.Fatal("expected Put to report write failure")
	}
}

func TestPurgeAndStats(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "old", "items.fetch", []byte("a")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	clock.now = clock.now.Add(10 * 24 * time.Hour)
	if err := store.Put(ctx, "new", "tmdb.canonical_name", []byte("b")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 2 || stats.Operations["items.fetch"] != 1 || stats.Operations["tmdb.canonical_name"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.OldestEntry.Before(stats.NewestEntry) {
		t.Fatalf("expected oldest before newest: %+v", stats)
	}

	removed, err := store.Purge(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged entry, got %d", removed)
	}
	removed, err = store.Purge(ctx, 0)
	if err != nil {
		t.Fatalf("Purge all failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected remaining entry purged, got %d", removed)
	}
}
