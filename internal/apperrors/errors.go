// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for transport mapping and logging. Handlers map
// each kind to exactly one HTTP status; services never touch status codes.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindStateConflict Kind = "STATE_CONFLICT"
	KindNotFound      Kind = "NOT_FOUND"
	KindForbidden     Kind = "FORBIDDEN"
	KindDuplicate     Kind = "DUPLICATE"
	KindExternal      Kind = "EXTERNAL_SERVICE_ERROR"
	KindSecurity      Kind = "SECURITY_VIOLATION"
	KindInternal      Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	// Violations enumerates every failed rule for multi-field validation,
	// so clients can render all of them at once.
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return e.Message + ": " + strings.Join(e.Violations, "; ")
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string, violations ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Violations: violations}
}

// StateConflict names both the current and the required state so callers can
// see why the transition was refused.
func StateConflict(entity, current, required string) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Message: fmt.Sprintf("%s is %s, operation requires %s", entity, current, required),
	}
}

// NotFound is also returned for exists-but-forbidden lookups on
// security-sensitive resources, deliberately indistinguishable.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func External(operation string, err error) *Error {
	return &Error{Kind: KindExternal, Message: operation + " failed", Err: err}
}

// Security marks events that must be logged distinctly from ordinary errors
// (invalid webhook signatures, ownership-bypass attempts).
func Security(message string) *Error {
	return &Error{Kind: KindSecurity, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind from any error chain; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ViolationsOf returns the enumerated rule violations, if any.
func ViolationsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}
