package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tabula/internal/queryir"
)

// QueryError is an error detected while executing a query.
//
// A lookup with no match is never a QueryError; it is an absent result.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Query is the kind of the failing query.
	Query queryir.Kind

	// Dataset is the dataset the query read, if any.
	Dataset string

	// RunID identifies the execution.
	RunID string

	// Err is the underlying cause, if any.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeUnknownDataset indicates the query reads a dataset that was not loaded.
	ErrCodeUnknownDataset QueryErrorCode = "UNKNOWN_DATASET"

	// ErrCodeInvalidQuery indicates the query failed validation.
	ErrCodeInvalidQuery QueryErrorCode = "INVALID_QUERY"

	// ErrCodeTransformFailed indicates a transform failed on a record.
	ErrCodeTransformFailed QueryErrorCode = "TRANSFORM_FAILED"

	// ErrCodeBackendFailed indicates the backend could not answer.
	ErrCodeBackendFailed QueryErrorCode = "BACKEND_FAILED"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Dataset != "" {
		msg = fmt.Sprintf("%s (query=%s, dataset=%s)", msg, e.Query, e.Dataset)
	} else if e.Query != "" {
		msg = fmt.Sprintf("%s (query=%s)", msg, e.Query)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the QueryErrorCode of err, or "" when err is not a
// QueryError. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) QueryErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnknownDataset returns true if err is an unknown dataset error.
func IsUnknownDataset(err error) bool {
	return ErrorCode(err) == ErrCodeUnknownDataset
}

// IsInvalidQuery returns true if err is a validation error.
func IsInvalidQuery(err error) bool {
	return ErrorCode(err) == ErrCodeInvalidQuery
}

// IsTransformFailed returns true if err is a transform error.
func IsTransformFailed(err error) bool {
	return ErrorCode(err) == ErrCodeTransformFailed
}

func newQueryError(code QueryErrorCode, q queryir.Query, runID, message string, err error) *QueryError {
	qe := &QueryError{Code: code, Message: message, RunID: runID, Err: err}
	if q != nil {
		qe.Query = q.Kind()
		qe.Dataset = q.Source()
	}
	return qe
}
