// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package apperr defines the centralized error handling framework for Tabulo.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Dedicated constructors for every query-compilation failure mode.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Tabulo API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "COLUMN_NOT_FOUND").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Query") // Returns "Query not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       "UNPROCESSABLE",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Query Compilation Errors (4xx)

// ColumnNotFound creates a 400 [AppError] for a filter or select column that
// cannot be resolved against the revision's filter table.
func ColumnNotFound(column string) *AppError {
	return &AppError{
		Code:       "COLUMN_NOT_FOUND",
		Message:    fmt.Sprintf("Column %q could not be resolved", column),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "column", Message: column}},
	}
}

// ValueNotFound creates a 400 [AppError] for a filter value whose description
// has no matching reference code.
func ValueNotFound(value string) *AppError {
	return &AppError{
		Code:       "VALUE_NOT_FOUND",
		Message:    fmt.Sprintf("Value %q has no matching reference", value),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "value", Message: value}},
	}
}

// InvalidSortDirection creates a 400 [AppError] for a sort spec whose
// direction is neither ASC nor DESC.
func InvalidSortDirection(direction string) *AppError {
	return &AppError{
		Code:       "INVALID_SORT_DIRECTION",
		Message:    fmt.Sprintf("Sort direction %q is not ASC or DESC", direction),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "sort", Message: direction}},
	}
}

// SortColumnNotFound creates a 400 [AppError] for a sort column that resolves
// neither as a fact-table column nor as a dimension name.
func SortColumnNotFound(column string) *AppError {
	return &AppError{
		Code:       "SORT_COLUMN_NOT_FOUND",
		Message:    fmt.Sprintf("Sort column %q could not be resolved", column),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "sort", Message: column}},
	}
}

// PageNumberTooHigh creates a 400 [AppError] when the requested page exceeds
// the total page count of the result set.
func PageNumberTooHigh(pageNumber, totalPages int) *AppError {
	return &AppError{
		Code:       "PAGE_NUMBER_TOO_HIGH",
		Message:    fmt.Sprintf("Page %d exceeds the %d available pages", pageNumber, totalPages),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "page_number", Message: fmt.Sprintf("%d", pageNumber)}},
	}
}

// PivotColumnNotInQuery creates a 400 [AppError] when a resolved pivot axis
// column does not appear in the compiled base query.
func PivotColumnNotInQuery(column string) *AppError {
	return &AppError{
		Code:       "PIVOT_COLUMN_NOT_IN_QUERY",
		Message:    fmt.Sprintf("Pivot column %q is not part of the compiled query", column),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "pivot", Message: column}},
	}
}

// PivotAxisRequired creates a 400 [AppError] when a pivot request is missing
// its x or y axis.
func PivotAxisRequired(axis string) *AppError {
	return &AppError{
		Code:       "PIVOT_AXIS_REQUIRED",
		Message:    fmt.Sprintf("Pivot axis %q is required", axis),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "pivot", Message: axis}},
	}
}

// UnknownEncodingFormat creates a 400 [AppError] for an unrecognized output
// format token.
func UnknownEncodingFormat(format string) *AppError {
	return &AppError{
		Code:       "UNKNOWN_ENCODING_FORMAT",
		Message:    fmt.Sprintf("Output format %q is not supported", format),
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: "format", Message: format}},
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// QueryExecutionFailed creates a 500 [AppError] wrapping a backend driver
// error raised while executing a compiled query.
func QueryExecutionFailed(cause error) *AppError {
	return &AppError{
		Code:       "QUERY_EXECUTION_FAILED",
		Message:    "Query execution failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
