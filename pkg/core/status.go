package core

// FailureCategory classifies a test failure for repair-strategy dispatch.
// The zero value is FailureUnknown so an unclassified failure never maps
// to a repair strategy by accident.
type FailureCategory int

const (
	FailureUnknown    FailureCategory = iota // No category matched
	FailureSelector                          // Element/locator could not be found
	FailureTiming                            // Timeout waiting for an element or state
	FailureAssertion                         // Expected value did not match
	FailureNavigation                        // Page navigation failed
	FailureNetwork                           // Request/response level failure
)

// String returns the string representation of FailureCategory.
func (c FailureCategory) String() string {
	switch c {
	case FailureSelector:
		return "selector"
	case FailureTiming:
		return "timing"
	case FailureAssertion:
		return "assertion"
	case FailureNavigation:
		return "navigation"
	case FailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ParseFailureCategory maps a stored category name back to its value.
// Unrecognized names map to FailureUnknown.
func ParseFailureCategory(s string) FailureCategory {
	switch s {
	case "selector":
		return FailureSelector
	case "timing":
		return FailureTiming
	case "assertion":
		return FailureAssertion
	case "navigation":
		return FailureNavigation
	case "network":
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// ResultStatus represents the outcome of a single test execution.
type ResultStatus string

// ResultStatus values.
const (
	StatusPassed  ResultStatus = "passed"
	StatusFailed  ResultStatus = "failed"
	StatusFlaky   ResultStatus = "flaky" // Passed only after one or more retries
	StatusSkipped ResultStatus = "skipped"
)

// IsSuccess returns true if the status indicates the test ultimately passed.
func (s ResultStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusFlaky
}
