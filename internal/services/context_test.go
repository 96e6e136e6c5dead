package services_test

import (
	"context"
	"testing"

	"showmark/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithItemTitle(ctx, "Chuck S01E02")
	ctx = services.WithItemIndex(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if title, ok := services.ItemTitleFromContext(ctx); !ok || title != "Chuck S01E02" {
		t.Fatalf("unexpected item title: %v %v", title, ok)
	}
	if idx, ok := services.ItemIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected item index: %v %v", idx, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithItemTitle(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.ItemTitleFromContext(ctx); ok {
		t.Fatal("expected no item title value")
	}
}
