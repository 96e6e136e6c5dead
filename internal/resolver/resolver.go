package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"showmark/internal/items"
	"showmark/internal/logging"
	"showmark/internal/myepisodes"
	"showmark/internal/services"
	"showmark/internal/showids"
	"showmark/internal/tmdb"
)

// Source names the step of the chain that produced an id.
type Source string

const (
	SourceItem       Source = "item"
	SourceTable      Source = "table"
	SourceSearch     Source = "search"
	SourceUnresolved Source = "unresolved"
)

// Table is the persistent name table.
type Table interface {
	Lookup(ctx context.Context, localName string) (showids.Record, bool, error)
	FindByExternalID(ctx context.Context, externalID string) (showids.Record, bool, error)
	Insert(ctx context.Context, rec showids.Record) error
	Rename(ctx context.Context, externalID, newName string, at time.Time) error
}

// Searcher runs a tracker show search and returns the raw results page.
type Searcher interface {
	Search(ctx context.Context, showName string) ([]byte, error)
}

// NameLookup returns the canonical series name for a query.
type NameLookup func(ctx context.Context, q tmdb.Query) (string, error)

// Resolver implements the identifier fallback chain.
type Resolver struct {
	table    Table
	lookup   NameLookup
	searcher Searcher
	logger   *slog.Logger
	clock    func() time.Time
	observe  func(Source)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock overrides the time stamped on table writes.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithSearcher sets the tracker search transport.
func WithSearcher(s Searcher) Option {
	return func(r *Resolver) {
		r.searcher = s
	}
}

// WithObserver is told which step of the chain settled each resolution.
func WithObserver(observe func(Source)) Option {
	return func(r *Resolver) {
		r.observe = observe
	}
}

// New constructs a Resolver. lookup may be nil, in which case the raw local
// name is searched unless the item carries a canonical name hint.
func New(table Table, lookup NameLookup, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		table:  table,
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "resolver"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind returns a copy of r that searches through s, typically the run's
// authenticated session.
func (r *Resolver) Bind(s Searcher) *Resolver {
	clone := *r
	clone.searcher = s
	return &clone
}

// Normalize case-folds a local name and collapses whitespace. Table keys are
// always normalized names.
func Normalize(localName string) string {
	return cases.Fold().String(strings.Join(strings.Fields(localName), " "))
}

// Resolve returns the show id for item and records it on item.ResolvedID.
func (r *Resolver) Resolve(ctx context.Context, item *items.Item) (string, error) {
	if item == nil {
		return "", services.Wrap(services.ErrInvalidInput, "resolver", "resolve", "Item is nil", nil)
	}
	if id := strings.TrimSpace(item.ResolvedID); id != "" {
		r.settled(SourceItem)
		return id, nil
	}
	id, err := r.ResolveName(ctx, item.LocalName, item.Hints)
	if err != nil {
		return "", err
	}
	item.ResolvedID = id
	return id, nil
}

// ResolveName runs the chain for a bare local name.
func (r *Resolver) ResolveName(ctx context.Context, localName string, hints items.Hints) (string, error) {
	localName = strings.TrimSpace(localName)
	if localName == "" {
		return "", services.Wrap(services.ErrInvalidInput, "resolver", "resolve", "Local name is empty", nil)
	}
	normalized := Normalize(localName)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldLocalName, normalized))

	rec, ok, err := r.table.Lookup(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", normalized, err)
	}
	if ok {
		logger.Debug("show id served from table", logging.String(logging.FieldShowID, rec.ExternalID))
		r.settled(SourceTable)
		return rec.ExternalID, nil
	}

	canonical := r.canonicalName(ctx, logger, localName, hints)

	if r.searcher == nil {
		return "", services.Wrap(services.ErrConfiguration, "resolver", "search", "No tracker search transport", nil)
	}
	body, err := r.searcher.Search(ctx, canonical)
	if err != nil {
		if !errors.Is(err, services.ErrTransport) && !errors.Is(err, services.ErrAuthentication) {
			err = services.Wrap(services.ErrTransport, "resolver", "search", "Tracker search failed", err)
		}
		return "", err
	}
	id, found := myepisodes.ExtractShowID(body, canonical)
	if !found {
		logger.Info("no tracker show matched", logging.String("canonical_name", canonical))
		r.settled(SourceUnresolved)
		return "", services.Wrap(services.ErrUnresolvable, "resolver", "search", fmt.Sprintf("No tracker show named %q", canonical), nil)
	}

	if err := r.record(ctx, logger, normalized, id); err != nil {
		return "", fmt.Errorf("resolve %q: %w", normalized, err)
	}
	r.settled(SourceSearch)
	return id, nil
}

func (r *Resolver) canonicalName(ctx context.Context, logger *slog.Logger, localName string, hints items.Hints) string {
	if hint := strings.TrimSpace(hints.CanonicalName); hint != "" {
		return hint
	}
	if r.lookup == nil {
		return localName
	}
	name, err := r.lookup(ctx, tmdb.Query{Name: localName, TMDBID: hints.TMDBID})
	if err != nil || strings.TrimSpace(name) == "" {
		if err == nil {
			err = errors.New("empty canonical name")
		}
		logging.WarnWithContext(logger, "canonical name lookup failed; using raw name", "canonical_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set tmdb.api_key or add a canonical_name hint to the item"),
			logging.String(logging.FieldImpact, "tracker search uses the local name as given"))
		return localName
	}
	return strings.TrimSpace(name)
}

func (r *Resolver) record(ctx context.Context, logger *slog.Logger, normalized, id string) error {
	now := r.clock()
	existing, ok, err := r.table.FindByExternalID(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		logger.Info("changing name for known series",
			logging.String("previous_name", existing.LocalName),
			logging.String(logging.FieldShowID, id))
		return r.table.Rename(ctx, id, normalized, now)
	}
	logger.Info("show id resolved", logging.String(logging.FieldShowID, id))
	return r.table.Insert(ctx, showids.Record{LocalName: normalized, ExternalID: id, UpdatedAt: now})
}

func (r *Resolver) settled(source Source) {
	if r.observe != nil {
		r.observe(source)
	}
}
