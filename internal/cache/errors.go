package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/f1metrix/internal/store"
	"github.com/roach88/f1metrix/internal/table"
)

// ErrorCode categorizes load failures.
type ErrorCode string

const (
	// ErrCodeTableNotFound indicates the requested table does not exist.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeConnectionFailure indicates the database could not be reached.
	ErrCodeConnectionFailure ErrorCode = "CONNECTION_FAILURE"

	// ErrCodeSchemaMismatch indicates the table drifted from its declared schema.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeQueryFailed indicates the engine rejected a parameterized query.
	ErrCodeQueryFailed ErrorCode = "QUERY_FAILED"

	// ErrCodeCanceled indicates the caller's context ended before the load
	// finished.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// DataLoadError reports a table or query that could not be loaded.
type DataLoadError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Table is the requested table name. Empty for query loads.
	Table string

	// Query is the SQL text for query loads.
	Query string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DataLoadError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: error loading table %q: %v", e.Code, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: error running query: %v", e.Code, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// newLoadError classifies a source or validation error.
func newLoadError(tableName, query string, err error) *DataLoadError {
	code := ErrCodeQueryFailed
	var se *table.SchemaError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = ErrCodeCanceled
	case errors.Is(err, store.ErrTableNotFound):
		code = ErrCodeTableNotFound
	case errors.Is(err, store.ErrUnavailable):
		code = ErrCodeConnectionFailure
	case errors.As(err, &se):
		code = ErrCodeSchemaMismatch
	}
	return &DataLoadError{Code: code, Table: tableName, Query: query, Err: err}
}

// CodeOf returns the DataLoadError code in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var le *DataLoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCanceled returns true if err is a load cut short by its context.
func IsCanceled(err error) bool {
	return CodeOf(err) == ErrCodeCanceled
}

// IsTableNotFound returns true if err is a missing-table load failure.
func IsTableNotFound(err error) bool {
	return CodeOf(err) == ErrCodeTableNotFound
}

// IsConnectionFailure returns true if err is an unreachable-database failure.
func IsConnectionFailure(err error) bool {
	return CodeOf(err) == ErrCodeConnectionFailure
}

// IsSchemaMismatch returns true if err is a schema validation failure.
func IsSchemaMismatch(err error) bool {
	return CodeOf(err) == ErrCodeSchemaMismatch
}
