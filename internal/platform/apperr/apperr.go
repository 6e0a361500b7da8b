// Package apperr defines the error taxonomy shared by every domain package and
// its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDocumentProcessing = errors.New("document processing failed")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError carries the offending field so handlers can report it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validation returns a *ValidationError for field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Required is shorthand for a missing required field.
func Required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// NotFound wraps ErrNotFound with the entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Conflict wraps ErrConflict with a human-readable reason.
func Conflict(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConflict)
}

// Unauthorized wraps ErrUnauthorized.
func Unauthorized(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrUnauthorized)
}

// DocumentProcessingError is returned when the identity or document extractor
// cannot produce the fields an operation depends on.
type DocumentProcessingError struct {
	Message string
	Cause   error
}

func (e *DocumentProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DocumentProcessingError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrDocumentProcessing, e.Cause}
	}
	return []error{ErrDocumentProcessing}
}

func DocumentProcessing(msg string, cause error) error {
	return &DocumentProcessingError{Message: msg, Cause: cause}
}

// Storage wraps an object storage failure with the operation that failed.
func Storage(op string, cause error) error {
	return fmt.Errorf("storage %s: %w: %w", op, ErrStorage, cause)
}

// HTTPStatus maps err onto a response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDocumentProcessing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short machine-readable name of err's category.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrDocumentProcessing):
		return "document_processing_error"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "internal_error"
	}
}
