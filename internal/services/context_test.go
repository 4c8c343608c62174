package services_test

import (
	"context"
	"testing"

	"crate/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithArtistID(ctx, 42)
	ctx = services.WithOperation(ctx, "reconcile")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ArtistIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected artist id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "reconcile" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestOperationBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
