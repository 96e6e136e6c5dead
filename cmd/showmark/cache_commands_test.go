package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCacheStatsAndClear(t *testing.T) {
	_, server := newFakeTracker(t)
	env := newTestEnv(t, server.URL)

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats returned error: %v", err)
	}
	requireContains(t, out, "Cache is empty")

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	t.Cleanup(feed.Close)
	if _, _, err := runCLI(t, []string{"run", feed.URL + "/items.json"}, env.configPath); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats returned error: %v", err)
	}
	requireContains(t, out, "items.fetch")
	requireContains(t, out, "Total: 1")

	out, _, err = runCLI(t, []string{"cache", "clear", "--older-than", "7 days"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear returned error: %v", err)
	}
	requireContains(t, out, "Removed 0 cache entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear returned error: %v", err)
	}
	requireContains(t, out, "Removed 1 cache entries")
}

func TestCacheClearRejectsBadWindow(t *testing.T) {
	_, server := newFakeTracker(t)
	env := newTestEnv(t, server.URL)

	_, _, err := runCLI(t, []string{"cache", "clear", "--older-than", "soon"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unparsable window")
	}
	requireContains(t, err.Error(), "--older-than")
}
