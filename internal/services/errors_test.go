package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"crate/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "pending", "insert", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"pending", "insert", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassification(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "pending", "reconcile", "decision without artist", nil)
	if kind := services.Kind(validationErr); kind != "validation" {
		t.Fatalf("expected validation, got %s", kind)
	}
	if !services.IsUserError(validationErr) {
		t.Fatal("expected validation error to be a user error")
	}

	notFound := fmt.Errorf("lookup: %w", services.ErrNotFound)
	if kind := services.Kind(notFound); kind != "not_found" {
		t.Fatalf("expected not_found, got %s", kind)
	}

	transientErr := services.Wrap(services.ErrTransient, "store", "exec", "locked", errors.New("busy"))
	if services.IsUserError(transientErr) {
		t.Fatal("expected transient error not to be a user error")
	}
	if kind := services.Kind(errors.New("plain")); kind != "transient" {
		t.Fatalf("expected untagged error to be transient, got %s", kind)
	}
}
