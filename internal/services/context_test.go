package services_test

import (
	"context"
	"testing"

	"reelharvest/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEntryID(ctx, "20240101_123")
	ctx = services.WithStage(ctx, "fetching")
	ctx = services.WithRunID(ctx, "run-123")

	if id, ok := services.EntryIDFromContext(ctx); !ok || id != "20240101_123" {
		t.Fatalf("unexpected entry id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "fetching" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithEntryID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.EntryIDFromContext(ctx); ok {
		t.Fatal("expected no entry id value")
	}
}
