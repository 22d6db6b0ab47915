// Package errors defines the typed application errors surfaced by the
// clustering engine.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the engine.
const (
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeDtypeMismatch     = "DTYPE_MISMATCH"
	CodeEmptyStore        = "EMPTY_STORE"
	CodeUnknownIndex      = "UNKNOWN_INDEX"
	CodeDegenerateSplit   = "DEGENERATE_SPLIT"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConfigError       = "CONFIG_ERROR"
)

// AppError represents an engine error with a machine-readable code.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Common sentinel instances for errors.Is matching.
var (
	ErrDimensionMismatch = New(CodeDimensionMismatch, "batch column count differs from established feature count")
	ErrDtypeMismatch     = New(CodeDtypeMismatch, "batch element type differs from established type")
	ErrEmptyStore        = New(CodeEmptyStore, "no data has been appended yet")
	ErrUnknownIndex      = New(CodeUnknownIndex, "point index not present in any micro-cluster")
	ErrDegenerateSplit   = New(CodeDegenerateSplit, "leaf projections are degenerate and cannot be split further")
	ErrInvalidInput      = New(CodeInvalidInput, "invalid input")
	ErrConfigError       = New(CodeConfigError, "configuration error")
)

// IsDimensionMismatch reports whether err is a dimension-mismatch error.
func IsDimensionMismatch(err error) bool { return errors.Is(err, ErrDimensionMismatch) }

// IsDtypeMismatch reports whether err is a dtype-mismatch error.
func IsDtypeMismatch(err error) bool { return errors.Is(err, ErrDtypeMismatch) }

// IsEmptyStore reports whether err is an empty-store error.
func IsEmptyStore(err error) bool { return errors.Is(err, ErrEmptyStore) }

// IsUnknownIndex reports whether err is an unknown-index error.
func IsUnknownIndex(err error) bool { return errors.Is(err, ErrUnknownIndex) }

// GetErrorCode extracts the error code from an error, if any.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
