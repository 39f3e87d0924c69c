// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// AppError carries a category the HTTP layer maps onto a status code.
type AppError struct {
	Type     ErrorType
	Message  string
	Resource string
	Key      string // i18n key shown to clients instead of Message
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithKey(key string) *AppError {
	e.Key = key
	return e
}

// NotFound names the missing resource ("variant", "recommendation", "shift", ...).
func NotFound(resource, message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Resource: resource, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

func Conflict(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the category of err, ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func IsNotFound(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeNotFound
}

func IsValidation(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeValidation
}

func IsUnauthorized(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeUnauthorized
}
