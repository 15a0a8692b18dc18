package core

import (
	"fmt"
)

// ExecutionError represents a structured error with a machine-readable code.
type ExecutionError struct {
	Code    string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message string                 // Human-readable message
	Details map[string]interface{} // Additional context
	Cause   error                  // Underlying error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches ExecutionErrors by code so derived copies compare equal
// to their predefined base error.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Code:    e.Code,
		Message: msg,
		Details: e.Details,
		Cause:   e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
		Cause:   e.Cause,
	}
}

// Predefined errors
var (
	// ErrElementNotFound means no selector strategy resolved a visible element.
	ErrElementNotFound = &ExecutionError{
		Code:    "element_not_found",
		Message: "element not found",
	}
	// ErrWaitTimeout means a deadline expired waiting for an element or state.
	ErrWaitTimeout = &ExecutionError{
		Code:    "wait_timeout",
		Message: "wait condition timed out",
	}
	// ErrActionFailed means an interaction exhausted its retry budget.
	ErrActionFailed = &ExecutionError{
		Code:    "action_failed",
		Message: "action failed after retries",
	}
	// ErrRepairNotApplicable means no repair pattern matched the test source.
	ErrRepairNotApplicable = &ExecutionError{
		Code:    "repair_not_applicable",
		Message: "no applicable repair pattern",
	}
	// ErrPersistence means reading or writing monitor state failed.
	ErrPersistence = &ExecutionError{
		Code:    "persistence_failed",
		Message: "failed to persist monitoring state",
	}
)
