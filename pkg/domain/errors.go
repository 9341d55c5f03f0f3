package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies domain errors so transports can map them to status codes.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindValidation   ErrorKind = "VALIDATION"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindLocked       ErrorKind = "LOCKED"
)

// DomainError is the error type returned by aggregates and application services.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewNotFoundError reports that an entity with the given identifier does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	msg := strings.ToLower(entity) + " not found"
	if id != "" {
		msg += ": " + id
	}
	return &DomainError{Kind: KindNotFound, Message: msg}
}

// NewConflictError reports a state conflict, e.g. a room that is already reserved.
func NewConflictError(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewForbiddenError reports that the caller may not act on the resource.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedError reports missing or bad credentials.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Message: message}
}

// NewLockedError reports a temporarily locked account.
func NewLockedError(message string) *DomainError {
	return &DomainError{Kind: KindLocked, Message: message}
}

// NewInvalidStateError reports a status transition that is not allowed.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Kind:    KindConflict,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// KindOf returns the kind of a wrapped DomainError, or "" for other errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
