package services_test

import (
	"context"
	"testing"

	"yodel/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTrackID(ctx, "abc123")
	ctx = services.WithStage(ctx, "fetch")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TrackIDFromContext(ctx); !ok || id != "abc123" {
		t.Fatalf("unexpected track id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "fetch" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithTrackID(ctx, "  ")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.TrackIDFromContext(ctx); ok {
		t.Fatal("expected no track id value")
	}
}
