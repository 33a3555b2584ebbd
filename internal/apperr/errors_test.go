package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassAndCode(t *testing.T) {
	errBusy := New(ErrState, "room_busy")
	wrapped := fmt.Errorf("join room 7: %w", errBusy)

	if !errors.Is(wrapped, ErrState) {
		t.Fatalf("expected state class")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("unexpected validation class")
	}
	if !errors.Is(wrapped, errBusy) {
		t.Fatalf("expected exact code match")
	}
	if got := Code(wrapped); got != "room_busy" {
		t.Fatalf("Code() = %q, want room_busy", got)
	}
}

func TestCodeFallbacks(t *testing.T) {
	if got := Code(fmt.Errorf("x: %w", ErrLedger)); got != "ledger_error" {
		t.Fatalf("Code() = %q, want ledger_error", got)
	}
	if got := Code(errors.New("boom")); got != "internal_error" {
		t.Fatalf("Code() = %q, want internal_error", got)
	}
}
