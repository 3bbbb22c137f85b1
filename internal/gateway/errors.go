package gateway

import (
	"errors"
	"fmt"
)

// QueryErrorCode categorizes ad-hoc query failures.
type QueryErrorCode string

const (
	// ErrCodeNotReadOnly indicates the text failed the read-only policy.
	ErrCodeNotReadOnly QueryErrorCode = "NOT_READ_ONLY"

	// ErrCodeExecutionFailed indicates the engine rejected an accepted query.
	ErrCodeExecutionFailed QueryErrorCode = "EXECUTION_FAILED"
)

// QueryError is the structured failure of Run.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is shown to the end user. For ExecutionFailed it is the
	// engine's message verbatim.
	Message string

	// ID identifies the query attempt.
	ID string

	// Query is the trimmed query text.
	Query string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (query=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsNotReadOnly returns true if err is a read-only policy rejection.
// Uses errors.As to handle wrapped errors.
func IsNotReadOnly(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeNotReadOnly
	}
	return false
}

// IsExecutionFailed returns true if err is an engine failure.
// Uses errors.As to handle wrapped errors.
func IsExecutionFailed(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeExecutionFailed
	}
	return false
}
