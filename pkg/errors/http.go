package errors

import "errors"

const genericMessage = "An unexpected error occurred"

// HTTPStatusCode maps unreadable and invalid requests to 400 and everything
// else, storage failures included, to 500.
func HTTPStatusCode(err error) int {
	switch GetErrorType(err) {
	case ErrorTypeInvalidRequest, ErrorTypeValidation:
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}

// GetHumanReadableMessage returns the AppError message, never the wrapped cause.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return genericMessage
}
