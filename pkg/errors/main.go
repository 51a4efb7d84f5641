// Package errors classifies failures on the waitlist path so handlers can pick
// a status code and a message that is safe to show a client.
package errors

import (
	"errors"
	"fmt"
)

const (
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusInternalServerError = 500
)

const (
	// ErrorTypeInvalidRequest is a request that could not be read at all.
	ErrorTypeInvalidRequest = "INVALID_REQUEST"
	// ErrorTypeValidation is a request that parsed but broke a field rule.
	ErrorTypeValidation = "VALIDATION_ERROR"
	// ErrorTypePersistence is a storage read or write failure.
	ErrorTypePersistence = "PERSISTENCE_ERROR"
	ErrorTypeUnknown     = "UNKNOWN_ERROR"
)

// AppError carries a client-safe Message alongside the underlying cause.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewValidationError(message string, err error) *AppError {
	return NewAppError(ErrorTypeValidation, message, err)
}

// NewPersistenceError reports a storage failure. Message must stay generic
// since it can reach the client; file paths belong in err.
func NewPersistenceError(message string, err error) *AppError {
	return NewAppError(ErrorTypePersistence, message, err)
}

func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

func IsPersistenceError(err error) bool {
	return GetErrorType(err) == ErrorTypePersistence
}

// GetErrorType returns the type of the first AppError in err's chain.
func GetErrorType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}
