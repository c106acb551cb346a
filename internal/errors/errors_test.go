package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeNotFound, "task not found")
	wrapped := fmt.Errorf("lookup: %w", Wrap(CodeNotFound, stdErrors.New("no rows"), "missing"))

	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatalf("expected errors.Is to match on code")
	}
	if stdErrors.Is(wrapped, New(CodeStorageFailure, "")) {
		t.Fatalf("unexpected match across codes")
	}
	if CodeOf(wrapped) != CodeNotFound {
		t.Fatalf("unexpected code: %s", CodeOf(wrapped))
	}
}

func TestAttributesDefaultsAndOverrides(t *testing.T) {
	storage := Wrap(CodeStorageFailure, stdErrors.New("disk full"), "insert failed")
	if !storage.ShouldAlert() || !storage.Retryable() || storage.Severity() != SeverityCritical {
		t.Fatalf("unexpected storage attributes: alert=%v retry=%v sev=%s", storage.ShouldAlert(), storage.Retryable(), storage.Severity())
	}
	if got := storage.Error(); got != "[STORAGE_FAILURE] insert failed: disk full" {
		t.Fatalf("unexpected message: %q", got)
	}

	quiet := New(CodeStorageFailure, "", WithAlert(false), WithSeverity(SeverityInfo))
	if quiet.ShouldAlert() || quiet.Severity() != SeverityInfo {
		t.Fatalf("overrides not applied")
	}
	if quiet.Message() != "storage failure" {
		t.Fatalf("expected registry message, got %q", quiet.Message())
	}
}

func TestUnregisteredCodeFallsBackToUnknown(t *testing.T) {
	err := New(Code("SOMETHING_ELSE"), "x")
	if err.Severity() != SeverityCritical {
		t.Fatalf("expected unknown severity, got %s", err.Severity())
	}
	if !ShouldAlert(stdErrors.New("plain")) {
		t.Fatalf("plain errors should alert as unknown")
	}
	if ShouldAlert(nil) {
		t.Fatalf("nil error must not alert")
	}
}

func TestMetadataIsCopied(t *testing.T) {
	err := New(CodeInvalidArgument, "bad", WithMetadata("field", "task"))
	meta := err.Metadata()
	meta["field"] = "changed"
	if err.Metadata()["field"] != "task" {
		t.Fatalf("metadata was mutated through the returned map")
	}
}
