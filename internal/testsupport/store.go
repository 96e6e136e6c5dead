package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"showmark/internal/config"
	"showmark/internal/statedb"
)

// MustOpenDB opens a migrated state database in a per-test directory and
// closes it when the test finishes.
func MustOpenDB(t testing.TB) *statedb.Store {
	t.Helper()
	store, err := statedb.Open(context.Background(), filepath.Join(t.TempDir(), "showmark.db"))
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenConfigDB opens the state database at the location configured in cfg.
func MustOpenConfigDB(t testing.TB, cfg *config.Config) *statedb.Store {
	t.Helper()
	store, err := statedb.Open(context.Background(), cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
