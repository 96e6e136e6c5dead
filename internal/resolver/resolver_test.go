package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"showmark/internal/items"
	"showmark/internal/logging"
	"showmark/internal/resolver"
	"showmark/internal/services"
	"showmark/internal/showids"
	"showmark/internal/testsupport"
	"showmark/internal/tmdb"
)

type fakeSearcher struct {
	bodies  map[string]string
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, name string) ([]byte, error) {
	f.queries = append(f.queries, name)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.bodies[name]), nil
}

var fixedNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newResolver(t *testing.T, lookup resolver.NameLookup, searcher *fakeSearcher) (*resolver.Resolver, *showids.Store) {
	t.Helper()
	table := showids.New(testsupport.MustOpenDB(t))
	r := resolver.New(table, lookup, logging.NewNop(),
		resolver.WithClock(func() time.Time { return fixedNow }),
		resolver.WithSearcher(searcher))
	return r, table
}

func failingLookup(context.Context, tmdb.Query) (string, error) {
	return "", services.Wrap(services.ErrLookup, "tmdb", "tv search", "unavailable", nil)
}

func TestChuckScenarioFallsBackToRawName(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{
		"chuck": `<a href="views.php?type=epsbyshow&showid=5111">chuck</a>`,
	}}
	r, table := newResolver(t, failingLookup, searcher)
	ctx := context.Background()

	item := &items.Item{LocalName: "chuck"}
	id, err := r.Resolve(ctx, item)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id != "5111" || item.ResolvedID != "5111" {
		t.Fatalf("expected 5111 on result and item, got %q / %q", id, item.ResolvedID)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "chuck" {
		t.Fatalf("expected search with raw name, got %v", searcher.queries)
	}

	rec, ok, err := table.Lookup(ctx, "chuck")
	if err != nil || !ok {
		t.Fatalf("expected stored record, ok=%v err=%v", ok, err)
	}
	if rec.ExternalID != "5111" || !rec.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestResolveIsIdempotentWithoutSecondSearch(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{
		"Chuck": `<a href="x.php?showid=5111">Chuck</a>`,
	}}
	lookup := func(context.Context, tmdb.Query) (string, error) { return "Chuck", nil }
	r, _ := newResolver(t, lookup, searcher)
	ctx := context.Background()

	first, err := r.ResolveName(ctx, "Chuck", items.Hints{})
	if err != nil {
		t.Fatalf("first ResolveName failed: %v", err)
	}
	second, err := r.ResolveName(ctx, "  CHUCK ", items.Hints{})
	if err != nil {
		t.Fatalf("second ResolveName failed: %v", err)
	}
	if first != second || first != "5111" {
		t.Fatalf("expected stable id, got %q then %q", first, second)
	}
	if len(searcher.queries) != 1 {
		t.Fatalf("expected a single network search, got %v", searcher.queries)
	}
}

func TestRenameCollapsesRecordsForSameID(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{
		"The Office": `<a href="x.php?showid=77">The Office</a>`,
	}}
	lookup := func(context.Context, tmdb.Query) (string, error) { return "The Office", nil }
	r, table := newResolver(t, lookup, searcher)
	ctx := context.Background()

	if err := table.Insert(ctx, showids.Record{LocalName: "office us", ExternalID: "77"}); err != nil {
		t.Fatalf("seed Insert failed: %v", err)
	}
	id, err := r.ResolveName(ctx, "The Office", items.Hints{})
	if err != nil || id != "77" {
		t.Fatalf("ResolveName = %q, %v", id, err)
	}

	records, err := table.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].LocalName != "the office" || records[0].ExternalID != "77" {
		t.Fatalf("expected a single renamed record, got %+v", records)
	}
}

func TestResolvedIDOnItemShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{}
	var sources []resolver.Source
	r := resolver.New(showids.New(testsupport.MustOpenDB(t)), nil, logging.NewNop(),
		resolver.WithSearcher(searcher),
		resolver.WithObserver(func(s resolver.Source) { sources = append(sources, s) }))

	id, err := r.Resolve(context.Background(), &items.Item{ResolvedID: " 42 "})
	if err != nil || id != "42" {
		t.Fatalf("Resolve = %q, %v", id, err)
	}
	if len(searcher.queries) != 0 {
		t.Fatalf("expected no search, got %v", searcher.queries)
	}
	if len(sources) != 1 || sources[0] != resolver.SourceItem {
		t.Fatalf("expected item source, got %v", sources)
	}
}

func TestEmptyLocalNameIsInvalidInput(t *testing.T) {
	searcher := &fakeSearcher{}
	r, _ := newResolver(t, nil, searcher)

	_, err := r.Resolve(context.Background(), &items.Item{LocalName: "   "})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(searcher.queries) != 0 {
		t.Fatal("expected no I/O for empty name")
	}
}

func TestNoMatchIsUnresolvable(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{"lost": `<a href="x?showid=1">Lost Girl</a>`}}
	r, table := newResolver(t, nil, searcher)
	ctx := context.Background()

	_, err := r.ResolveName(ctx, "lost", items.Hints{})
	if !errors.Is(err, services.ErrUnresolvable) {
		t.Fatalf("expected unresolvable, got %v", err)
	}
	records, _ := table.List(ctx)
	if len(records) != 0 {
		t.Fatalf("expected no table writes, got %+v", records)
	}
}

func TestSearchFailureIsTransportError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection reset")}
	r, _ := newResolver(t, nil, searcher)

	_, err := r.ResolveName(context.Background(), "lost", items.Hints{})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCanonicalHintSkipsLookup(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{
		"Human Target (2010)": `<a href="x?showid=8080">Human Target (2010)</a>`,
	}}
	lookupCalled := false
	lookup := func(context.Context, tmdb.Query) (string, error) {
		lookupCalled = true
		return "wrong", nil
	}
	r, _ := newResolver(t, lookup, searcher)

	id, err := r.ResolveName(context.Background(), "human target", items.Hints{CanonicalName: "Human Target (2010)"})
	if err != nil || id != "8080" {
		t.Fatalf("ResolveName = %q, %v", id, err)
	}
	if lookupCalled {
		t.Fatal("expected canonical hint to bypass the lookup")
	}
}

func TestLookupReceivesTMDBHint(t *testing.T) {
	searcher := &fakeSearcher{bodies: map[string]string{"Chuck": `<a href="x?showid=5111">Chuck</a>`}}
	var got tmdb.Query
	lookup := func(_ context.Context, q tmdb.Query) (string, error) {
		got = q
		return "Chuck", nil
	}
	r, _ := newResolver(t, lookup, searcher)

	if _, err := r.ResolveName(context.Background(), "chuck", items.Hints{TMDBID: 1404}); err != nil {
		t.Fatalf("ResolveName failed: %v", err)
	}
	if got.Name != "chuck" || got.TMDBID != 1404 {
		t.Fatalf("unexpected lookup query %+v", got)
	}
}

func TestMissingSearcherIsConfigurationError(t *testing.T) {
	r := resolver.New(showids.New(testsupport.MustOpenDB(t)), nil, logging.NewNop())
	_, err := r.ResolveName(context.Background(), "chuck", items.Hints{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	bound := r.Bind(&fakeSearcher{bodies: map[string]string{"chuck": `<a href="x?showid=1">chuck</a>`}})
	if id, err := bound.ResolveName(context.Background(), "chuck", items.Hints{}); err != nil || id != "1" {
		t.Fatalf("bound resolver = %q, %v", id, err)
	}
}

func TestNormalize(t *testing.T) {
	if got := resolver.Normalize("  The   OFFICE "); got != "the office" {
		t.Fatalf("Normalize = %q", got)
	}
}
