package marker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"showmark/internal/items"
	"showmark/internal/logging"
	"showmark/internal/metrics"
	"showmark/internal/resolver"
	"showmark/internal/services"
	"showmark/internal/session"
)

// Authenticator performs the run's single login.
type Authenticator interface {
	Login(ctx context.Context, creds session.Credentials) (*session.Session, error)
}

// RunContext carries the per-run collaborators into Execute.
type RunContext struct {
	Session *session.Session
	Logger  *slog.Logger
	Clock   func() time.Time
	DryRun  bool
}

// Executor marks items acquired on the tracker.
type Executor struct {
	resolver *resolver.Resolver
	auth     Authenticator
	metrics  *metrics.Recorder
	logger   *slog.Logger
	clock    func() time.Time
	dryRun   bool
}

// Option customizes an Executor.
type Option func(*Executor)

// WithMetrics records outcomes on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(e *Executor) {
		e.metrics = rec
	}
}

// WithClock overrides the run clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithDryRun resolves items but skips the mark request.
func WithDryRun(enabled bool) Option {
	return func(e *Executor) {
		e.dryRun = enabled
	}
}

// NewExecutor constructs an Executor.
func NewExecutor(res *resolver.Resolver, auth Authenticator, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		resolver: res,
		auth:     auth,
		logger:   logging.NewComponentLogger(logger, "marker"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run logs in and executes every item in order. The returned error is
// non-nil only for run-fatal conditions (login failure, cancellation).
func (e *Executor) Run(ctx context.Context, creds session.Credentials, batch []items.Item) (summary Summary, err error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)
	started := e.clock()
	summary = Summary{RunID: runID, DryRun: e.dryRun, StartedAt: started}

	defer func() {
		summary.FinishedAt = e.clock()
		summary.Duration = summary.FinishedAt.Sub(started)
		e.metrics.RunFinished(summary.FinishedAt, summary.Duration)
	}()

	if len(batch) == 0 {
		logger.Info("no items accepted; skipping tracker login",
			logging.Args(logging.DecisionAttrs("login", "skipped", "empty batch")...)...)
		return summary, nil
	}

	sess, err := e.auth.Login(ctx, creds)
	e.metrics.Login(err == nil)
	if err != nil {
		return summary, fmt.Errorf("run aborted before processing %d items: %w", len(batch), err)
	}
	summary.LoggedIn = true

	rc := RunContext{Session: sess, Logger: e.logger, Clock: e.clock, DryRun: e.dryRun}
	for i := range batch {
		if err := ctx.Err(); err != nil {
			return summary, services.Wrap(services.ErrTransport, "marker", "run", "Run cancelled", err)
		}
		item := &batch[i]
		itemCtx := services.WithItemIndex(services.WithItemTitle(ctx, item.DisplayTitle()), i+1)
		outcome := e.Execute(itemCtx, rc, item)
		summary.add(*item, outcome)
		e.metrics.ItemOutcome(string(outcome.Status))
	}

	logger.Info("run complete",
		logging.Int("marked", summary.Marked),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Bool("dry_run", e.dryRun))
	return summary, nil
}

// Execute resolves and marks one item. It never panics or returns an error;
// every failure is folded into the Outcome.
func (e *Executor) Execute(ctx context.Context, rc RunContext, item *items.Item) Outcome {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(rc.Logger, "marker"))
	if item == nil {
		return Failed("nil item")
	}

	showID, err := e.resolver.Bind(rc.Session).Resolve(ctx, item)
	if err != nil {
		outcome := classifyResolveError(err)
		attrs := []logging.Attr{
			logging.String("reason", outcome.Reason),
			logging.Error(err),
		}
		if outcome.Status == StatusFailed {
			logging.ErrorWithContext(logger, "show id resolution failed", "resolve_failed", attrs...)
		} else {
			logging.WarnWithContext(logger, "couldn't get show id", "resolve_skipped",
				append(attrs,
					logging.String(logging.FieldErrorHint, "set resolved_id on the item or add an id with `showmark ids set`"),
					logging.String(logging.FieldImpact, "episode not marked"))...)
		}
		return outcome
	}
	logger = logger.With(logging.String(logging.FieldShowID, showID))

	if item.Season == nil || item.Episode == nil {
		logging.WarnWithContext(logger, "can't mark item without season and episode", "missing_episode_numbers",
			logging.String(logging.FieldImpact, "episode not marked"))
		return Skipped(ReasonMissingEpisode)
	}

	if rc.DryRun {
		logger.Info(fmt.Sprintf("would mark %s of `%s` as acquired", item.EpisodeCode(), item.LocalName))
		return Marked()
	}

	started := rc.now()
	if err := rc.Session.MarkAcquired(ctx, showID, *item.Season, *item.Episode); err != nil {
		logging.ErrorWithContext(logger, "mark request failed", "mark_failed",
			logging.Error(err),
			logging.Duration("latency", rc.now().Sub(started)),
			logging.String(logging.FieldErrorHint, "check tracker availability; the item will be retried next run"))
		return Failed(err.Error())
	}
	logger.Info(fmt.Sprintf("marked %s of `%s` as acquired", item.EpisodeCode(), item.LocalName),
		logging.Duration("latency", rc.now().Sub(started)))
	return Marked()
}

func (rc RunContext) now() time.Time {
	if rc.Clock != nil {
		return rc.Clock()
	}
	return time.Now()
}

func classifyResolveError(err error) Outcome {
	switch {
	case services.Fatal(err, false):
		return Failed(err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return Skipped(ReasonMissingName)
	case errors.Is(err, services.ErrUnresolvable),
		errors.Is(err, services.ErrTransport),
		errors.Is(err, services.ErrLookup):
		return Skipped(ReasonNoExternalID)
	default:
		return Failed(err.Error())
	}
}
