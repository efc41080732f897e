// Package service scopes every record operation to the caller's identity.
package service

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	// ErrNotFound covers both a missing record and one owned by someone else.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps store failures. Callers never see the cause.
	ErrPersistence = errors.New("persistence failure")
	// ErrNoOwner is returned when an operation is attempted without an identity.
	ErrNoOwner = errors.New("no owner identity")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

type requiredField struct {
	name  string
	value *string
}

// requireFields reports the first field left unset.
func requireFields(fields ...requiredField) error {
	for _, f := range fields {
		if f.value == nil {
			return invalid(f.name, "is required")
		}
	}
	return nil
}
