// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "graph", "reputation", "trust"
	Op      string // Operation that failed, e.g., "Follow", "Resolve"
	Kind    error  // Base error type for errors.Is() checking
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

// Is implements errors.Is() matching.
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

// Graph domain errors
var (
	ErrEdgeNotFound     = NewDomainError("graph", "FindEdge", ErrNotFound, "edge not found")
	ErrAlreadyFollowing = NewDomainError("graph", "Follow", ErrAlreadyExists, "already following this user")
	ErrNotFollowing     = NewDomainError("graph", "Unfollow", ErrNotFound, "not following this user")
	ErrSelfFollow       = NewDomainError("graph", "Follow", ErrInvalidInput, "cannot follow self")
	ErrGraphUnavailable = NewDomainError("graph", "Read", ErrServiceUnavailable, "social graph store unavailable")
	ErrInvalidUserID    = NewDomainError("graph", "Validate", ErrInvalidID, "invalid user ID")
)

// Reputation domain errors
var (
	ErrProfileNotFound    = NewDomainError("reputation", "Find", ErrNotFound, "reputation profile not found")
	ErrInvalidCounter     = NewDomainError("reputation", "Validate", ErrNegativeValue, "counters cannot be negative")
	ErrRewardsDecreased   = NewDomainError("reputation", "Update", ErrStateTransition, "token rewards are monotonic")
	ErrActiveSinceChanged = NewDomainError("reputation", "Update", ErrStateTransition, "active-since is immutable once set")
)

// Trust scoring errors
var (
	ErrInvalidContent     = NewDomainError("trust", "Validate", ErrInvalidInput, "content metadata is malformed")
	ErrInvalidInteraction = NewDomainError("trust", "Validate", ErrInvalidInput, "interaction record is malformed")
	ErrInvalidEvaluator   = NewDomainError("trust", "Validate", ErrInvalidID, "evaluating user ID is required")
)

// Chain adapter errors
var (
	ErrPayloadInvalid = NewDomainError("chain", "BuildPayload", ErrInvalidInput, "transaction payload failed validation")
	ErrCommitFailed   = NewDomainError("chain", "Commit", ErrExternalService, "chain commit failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsGraphUnavailable reports whether the error means the graph store could not
// be read. Callers must not confuse this with a zero trust weight.
func IsGraphUnavailable(err error) bool {
	return errors.Is(err, ErrGraphUnavailable)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
