package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPointError_MatchesSentinel(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindInvalidAmount, ErrInvalidAmount},
		{KindAccountNotFound, ErrAccountNotFound},
		{KindInsufficientBalance, ErrInsufficientBalance},
		{KindBalanceLimitExceeded, ErrBalanceLimitExceeded},
		{KindNoHistoryFound, ErrNoHistoryFound},
		{KindStorageFailure, ErrStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &PointError{Kind: tt.kind, AccountID: 7})

			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected errors.Is to match %v", tt.sentinel)
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("KindOf = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestPointError_StorageUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError(3, cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected storage error to unwrap to its cause")
	}
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatal("expected storage error to match ErrStorageFailure")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected message to include cause, got %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v", got)
	}
	if got := KindOf(context.Canceled); got != KindUnknown {
		t.Errorf("KindOf(context.Canceled) = %v", got)
	}
	if got := KindOf(fmt.Errorf("x: %w", ErrAccountNotFound)); got != KindAccountNotFound {
		t.Errorf("KindOf(wrapped sentinel) = %v", got)
	}
	if got := ErrorKind(99).String(); got != "UNKNOWN" {
		t.Errorf("unknown kind string = %q", got)
	}
}

func TestPointError_InsufficientMessage(t *testing.T) {
	err := &PointError{Kind: KindInsufficientBalance, AccountID: 1, Balance: 500, Amount: 2000}

	want := "insufficient balance: account 1 has 500, requested 2000"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
