package common

import (
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound builds the canonical 404 error for a missing resource.
func NotFound(message string) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, nil)
}

// Unprocessable builds a 422 error for requests that are well formed but
// violate a business rule, such as the cart admission limits.
func Unprocessable(code, message string) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity, nil)
}

// BadRequest builds a 400 error for malformed input.
func BadRequest(message string, details any) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: message, HTTPStatus: http.StatusBadRequest, Details: details}
}

// Internal wraps an unexpected failure into a 500 error.
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL", message, http.StatusInternalServerError, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
