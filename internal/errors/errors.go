package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound   ErrorType = "NOT_FOUND"   // input path absent
	ErrTypeParsing    ErrorType = "PARSING"     // schema/parse failure on a row
	ErrTypeContract   ErrorType = "CONTRACT"    // no matching last-trading-day entry
	ErrTypeOutOfRange ErrorType = "OUT_OF_RANGE" // interpolation target outside curve coverage
	ErrTypeWindow     ErrorType = "WINDOW"      // rolling computation requested without enough history
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the pipeline's error kinds

// NewMissingFileError reports an input path that does not exist.
func NewMissingFileError(path string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("input file not found: %s", path), cause).
		WithContext("path", path)
}

// NewMalformedRowError reports a schema or parse failure on a specific row.
// Row numbers are 1-based and include the header row, matching what an
// analyst sees in a spreadsheet.
func NewMalformedRowError(file string, row int, message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, fmt.Sprintf("%s row %d: %s", file, row, message), cause).
		WithContext("file", file).
		WithContext("row", row)
}

// NewMissingColumnError reports a required column absent from a file header.
func NewMissingColumnError(file, column string) *AppError {
	return NewAppError(ErrTypeParsing, fmt.Sprintf("%s: required column %q not found in header", file, column), nil).
		WithContext("file", file).
		WithContext("column", column)
}

// NewUnresolvedContractError reports a contract whose maturity has no
// last-trading-day entry. The contract code is always included so the
// failing observation can be audited.
func NewUnresolvedContractError(contract string, month time.Month, year int) *AppError {
	return NewAppError(ErrTypeContract,
		fmt.Sprintf("no last-trading-day entry for contract %q (month=%d year=%d)", contract, int(month), year), nil).
		WithContext("contract", contract).
		WithContext("month", int(month)).
		WithContext("year", year)
}

// NewOutOfRangeError reports an interpolation target outside the curve's tenor coverage.
func NewOutOfRangeError(targetDays, minDays, maxDays int) *AppError {
	return NewAppError(ErrTypeOutOfRange,
		fmt.Sprintf("target maturity %dd outside curve range [%dd, %dd]", targetDays, minDays, maxDays), nil).
		WithContext("target_days", targetDays).
		WithContext("min_days", minDays).
		WithContext("max_days", maxDays)
}

// NewInsufficientWindowError reports a rolling computation requested before
// enough history exists.
func NewInsufficientWindowError(have, need int) *AppError {
	return NewAppError(ErrTypeWindow,
		fmt.Sprintf("rolling window has %d observations, need at least %d", have, need), nil).
		WithContext("have", have).
		WithContext("need", need)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
