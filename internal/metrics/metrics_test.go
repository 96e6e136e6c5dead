package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"showmark/internal/metrics"
)

func TestRecorderCounts(t *testing.T) {
	rec := metrics.New()
	rec.ItemOutcome("marked")
	rec.ItemOutcome("marked")
	rec.ItemOutcome("skipped")
	rec.Resolution("table")
	rec.CacheLookup("tmdb.canonical_name", true)
	rec.CacheLookup("tmdb.canonical_name", false)
	rec.Login(true)

	if got := testutil.ToFloat64(rec.ItemsCounter("marked")); got != 2 {
		t.Fatalf("expected 2 marked items, got %v", got)
	}
	if got := testutil.ToFloat64(rec.ItemsCounter("skipped")); got != 1 {
		t.Fatalf("expected 1 skipped item, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.Registry(), "showmark_cache_lookups_total"); n != 2 {
		t.Fatalf("expected hit and miss series, got %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	rec := metrics.New()
	rec.ItemOutcome("failed")
	rec.RunFinished(time.Unix(1700000000, 0), 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "textfile", "showmark.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`showmark_items_total{status="failed"} 1`,
		"showmark_last_run_duration_seconds 1.5",
		"showmark_last_run_timestamp_seconds ",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *metrics.Recorder
	rec.ItemOutcome("marked")
	rec.Login(false)
	rec.RunFinished(time.Now(), time.Second)
	if err := rec.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("expected nil recorder write to be a no-op, got %v", err)
	}
}
