package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced by the authorization chain or the
// lifecycle manager matches at least one of these with errors.Is.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotAMember         = errors.New("not a member of this tenant")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrNotOwner           = errors.New("not the owner of this resource")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrTransactionAborted = errors.New("transaction aborted")
)

// Not found errors
var (
	ErrUserNotFound             = fmt.Errorf("user %w", ErrNotFound)
	ErrTenantNotFound           = fmt.Errorf("tenant %w", ErrNotFound)
	ErrMembershipNotFound       = fmt.Errorf("membership %w", ErrNotFound)
	ErrIsolatedDatabaseNotFound = fmt.Errorf("isolated database %w", ErrNotFound)
	ErrRecordNotFound           = fmt.Errorf("record %w", ErrNotFound)
)

// Conflict errors
var (
	ErrUserAlreadyExists = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrAlreadyMember     = fmt.Errorf("user is already a member of this tenant: %w", ErrConflict)
	ErrRemoveCreator     = fmt.Errorf("tenant creator cannot be removed: %w", ErrConflict)
	ErrAlreadyVerified   = fmt.Errorf("account already verified: %w", ErrConflict)
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Validation errors
var (
	ErrInvalidEmail    = fmt.Errorf("invalid email address: %w", ErrValidation)
	ErrWeakPassword    = fmt.Errorf("password does not meet requirements: %w", ErrValidation)
	ErrNothingToUpdate = fmt.Errorf("no valid fields provided to update: %w", ErrValidation)
)

// InvalidTokenError reports why a token was rejected.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return "invalid token: " + e.Reason
}

// Is reports kind equality so callers can test with errors.Is(err, ErrInvalidToken).
func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TxAbortedError wraps a failure that caused a store transaction to roll back.
// It matches both ErrTransactionAborted and the original cause.
type TxAbortedError struct {
	Op  string
	Err error
}

func (e *TxAbortedError) Error() string {
	return fmt.Sprintf("%s: transaction aborted: %v", e.Op, e.Err)
}

func (e *TxAbortedError) Unwrap() []error {
	return []error{ErrTransactionAborted, e.Err}
}
