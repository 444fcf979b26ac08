package services

import (
	"errors"

	"github.com/skyreachair/leadfunnel/internal/dto"
)

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("account is deactivated")
	ErrInvalidSession     = errors.New("session expired or revoked")
	ErrEmailTaken         = errors.New("email already registered")
)

// ValidationError carries per-field failures back to the HTTP layer.
type ValidationError struct {
	Message string
	Fields  []dto.FieldError
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return e.Fields[0].Field + ": " + e.Fields[0].Message
	}
	return "validation failed"
}

func newValidationError(message string, fields ...dto.FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
