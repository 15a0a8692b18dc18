package classify

import (
	"testing"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rawError string
		expected core.FailureCategory
	}{
		{
			name:     "timeout keyword beats selector keyword",
			rawError: `TimeoutError: waiting for selector "button.save" failed: timeout 5000ms exceeded`,
			expected: core.FailureTiming,
		},
		{
			name:     "plain timeout",
			rawError: "operation timed out after 30s",
			expected: core.FailureTiming,
		},
		{
			name:     "selector not found",
			rawError: `Error: element not found for "#submit"`,
			expected: core.FailureSelector,
		},
		{
			name:     "stale element",
			rawError: "stale element reference: element is not attached to the page document",
			expected: core.FailureSelector,
		},
		{
			name:     "navigation failure",
			rawError: "page.goto: net::ERR_ABORTED at http://localhost:3000/orders",
			expected: core.FailureNavigation,
		},
		{
			name:     "connection refused",
			rawError: "request to http://localhost:8080/api failed: ECONNREFUSED",
			expected: core.FailureNetwork,
		},
		{
			name:     "server error status",
			rawError: "API responded with 503 Service Unavailable",
			expected: core.FailureNetwork,
		},
		{
			name:     "assertion mismatch",
			rawError: `expect(received).toBe(expected) // Object.is equality`,
			expected: core.FailureAssertion,
		},
		{
			name:     "unmatched text",
			rawError: "something inexplicable happened",
			expected: core.FailureUnknown,
		},
		{
			name:     "empty text",
			rawError: "",
			expected: core.FailureUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.rawError); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.rawError, got, tt.expected)
			}
		})
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	raw := `TimeoutError: waiting for selector "button.save" failed`
	first := Classify(raw)
	for i := 0; i < 10; i++ {
		if got := Classify(raw); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}

func TestFailingSelector(t *testing.T) {
	tests := []struct {
		name     string
		rawError string
		expected string
	}{
		{
			name:     "waiting for selector",
			rawError: `TimeoutError: waiting for selector "button.save" failed`,
			expected: "button.save",
		},
		{
			name:     "locator single quotes",
			rawError: `Error: locator('#submit') resolved to 0 elements`,
			expected: "#submit",
		},
		{
			name:     "no selector present",
			rawError: "something else entirely",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailingSelector(tt.rawError); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewFailure(t *testing.T) {
	f := NewFailure("checkout saves order", "tests/checkout.spec.ts", "element not found for #save")
	if f.Type != core.FailureSelector {
		t.Errorf("got type %v, want selector", f.Type)
	}
	if f.Test != "checkout saves order" || f.File != "tests/checkout.spec.ts" {
		t.Errorf("failure record fields not carried through: %+v", f)
	}
}
