package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExecutionError
		expected string
	}{
		{
			name:     "message only",
			err:      &ExecutionError{Code: "wait_timeout", Message: "wait condition timed out"},
			expected: "wait condition timed out",
		},
		{
			name: "with cause",
			err: &ExecutionError{
				Code:    "element_not_found",
				Message: "element not found",
				Cause:   errors.New("no match for #submit"),
			},
			expected: "element not found: no match for #submit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExecutionError_Is_MatchesByCode(t *testing.T) {
	derived := ErrWaitTimeout.
		WithCause(errors.New("deadline exceeded")).
		WithMessage("timed out waiting for #submit")

	if !errors.Is(derived, ErrWaitTimeout) {
		t.Error("derived error should match ErrWaitTimeout")
	}
	if errors.Is(derived, ErrElementNotFound) {
		t.Error("derived error should not match ErrElementNotFound")
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrPersistence.WithCause(cause)

	wrapped := fmt.Errorf("recording result: %w", err)
	if !errors.Is(wrapped, ErrPersistence) {
		t.Error("wrapped error should match ErrPersistence")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should match the original cause")
	}
}

func TestExecutionError_WithDetails_Merges(t *testing.T) {
	base := ErrElementNotFound.WithDetails(map[string]interface{}{"selector": "#a"})
	merged := base.WithDetails(map[string]interface{}{"attempts": 3})

	if merged.Details["selector"] != "#a" {
		t.Errorf("got selector=%v, want #a", merged.Details["selector"])
	}
	if merged.Details["attempts"] != 3 {
		t.Errorf("got attempts=%v, want 3", merged.Details["attempts"])
	}
	// Base copy must not see the new key
	if _, ok := base.Details["attempts"]; ok {
		t.Error("WithDetails must not mutate the receiver")
	}
}

func TestFailureCategory_StringRoundTrip(t *testing.T) {
	categories := []FailureCategory{
		FailureSelector, FailureTiming, FailureAssertion,
		FailureNavigation, FailureNetwork, FailureUnknown,
	}
	for _, c := range categories {
		if got := ParseFailureCategory(c.String()); got != c {
			t.Errorf("round trip for %v: got %v", c, got)
		}
	}
	if got := ParseFailureCategory("bogus"); got != FailureUnknown {
		t.Errorf("unrecognized name: got %v, want FailureUnknown", got)
	}
}
