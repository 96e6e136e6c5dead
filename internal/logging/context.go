package logging

import (
	"context"
	"log/slog"

	"showmark/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType names the machine-readable event behind a warning or error.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags log lines that record a branch taken by the pipeline.
	FieldDecisionType = "decision_type"
	// FieldRunID is the standardized structured logging key for run correlation identifiers.
	FieldRunID = "run_id"
	// FieldItemTitle is the standardized structured logging key for the item being processed.
	FieldItemTitle = "item_title"
	// FieldItemIndex is the 1-based position of the item within its batch.
	FieldItemIndex = "item_index"
	// FieldLocalName is the upstream series name as supplied by the item.
	FieldLocalName = "local_name"
	// FieldShowID is the tracker's identifier for a series.
	FieldShowID = "show_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if title, ok := services.ItemTitleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemTitle, title))
	}
	if idx, ok := services.ItemIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldItemIndex, idx))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
