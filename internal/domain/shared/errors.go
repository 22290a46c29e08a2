// Package shared contains common domain types, errors and events that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrStateTransition = errors.New("invalid state transition")
	ErrInvariant       = errors.New("invariant violated")

	// Entitlement errors
	ErrPaymentRequired = errors.New("payment required")

	// Storage errors
	ErrTransaction = errors.New("transaction failed")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "learner", "catalog"
	Op      string // Operation that failed, e.g., "Enroll", "CompleteLesson"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Course domain errors
var (
	ErrCourseNotFound       = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrModuleNotFound       = NewDomainError("course", "FindModule", ErrNotFound, "module not found")
	ErrLessonNotFound       = NewDomainError("course", "FindLesson", ErrNotFound, "lesson not found")
	ErrAlreadyEnrolled      = NewDomainError("course", "Enroll", ErrAlreadyExists, "course already enrolled")
	ErrPremiumCourse        = NewDomainError("course", "Enroll", ErrPaymentRequired, "premium course requires a premium plan")
	ErrLessonModuleMismatch = NewDomainError("course", "CompleteLesson", ErrInvalidInput, "lesson does not belong to module")
)

// Learner domain errors
var (
	ErrUserNotFound    = NewDomainError("learner", "Find", ErrNotFound, "local user not found")
	ErrSingletonBroken = NewDomainError("learner", "Find", ErrInvariant, "expected exactly one local user row")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
)

// Catalog (remote) errors
var (
	ErrCatalogUnavailable     = NewDomainError("catalog", "Request", ErrServiceUnavailable, "course catalog is unavailable")
	ErrCatalogRateLimited     = NewDomainError("catalog", "Request", ErrRateLimited, "course catalog rate limit exceeded")
	ErrCatalogTimeout         = NewDomainError("catalog", "Request", ErrTimeout, "course catalog request timeout")
	ErrCatalogInvalidResponse = NewDomainError("catalog", "Parse", ErrInvalidFormat, "invalid response from course catalog")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsPaymentRequired checks if the error is an entitlement error.
func IsPaymentRequired(err error) bool {
	return errors.Is(err, ErrPaymentRequired)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrStateTransition)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
