package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "VALIDATION"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeInvalidCursor    ErrorType = "INVALID_CURSOR"
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"
	ErrorTypeCorruptKey       ErrorType = "CORRUPT_KEY"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// AppError is the custom error type for the engine
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInvalidCursor creates an invalid cursor error
func NewInvalidCursor(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInvalidCursor,
		Message: message,
		Err:     err,
	}
}

// NewStoreUnavailable creates a transient, retryable store error
func NewStoreUnavailable(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeStoreUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewCorruptKey creates a corrupt key error. A stored key failing its
// parse invariant is corrupt data and must never be treated as not found.
func NewCorruptKey(message string) error {
	return &AppError{
		Type:    ErrorTypeCorruptKey,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context, preserving its type
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsInvalidCursor checks if an error is an invalid cursor error
func IsInvalidCursor(err error) bool {
	return isType(err, ErrorTypeInvalidCursor)
}

// IsStoreUnavailable checks if an error is a transient store error
func IsStoreUnavailable(err error) bool {
	return isType(err, ErrorTypeStoreUnavailable)
}

// IsCorruptKey checks if an error is a corrupt key error
func IsCorruptKey(err error) bool {
	return isType(err, ErrorTypeCorruptKey)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}
