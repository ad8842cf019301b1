package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError means required data is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type MethodNotAllowedError struct {
	Method string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed", e.Method)
}

// ParseError means the multipart stream itself could not be read.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse multipart body: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DeliveryError is returned when both the primary and the backup transport
// failed. It reports and unwraps to the backup failure, which is terminal.
type DeliveryError struct {
	Primary error
	Backup  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed on backup transport: %v", e.Backup)
}

func (e *DeliveryError) Unwrap() error {
	return e.Backup
}

// StatusCode maps an error from the submission pipeline to its HTTP status.
func StatusCode(err error) int {
	var validationErr *ValidationError
	var methodErr *MethodNotAllowedError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &methodErr):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
