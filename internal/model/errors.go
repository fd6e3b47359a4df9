package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an id that does
	// not exist. Nothing is changed when it is returned.
	ErrNotFound = errors.New("not found")

	ErrDebtorNotFound      = fmt.Errorf("debtor %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)

	// ErrValidation marks malformed input rejected at an import or API boundary.
	ErrValidation = errors.New("validation error")

	// ErrStorageFatal means the local store could not be opened; the session
	// cannot continue.
	ErrStorageFatal = errors.New("local store unavailable")

	// ErrSyncUnavailable is returned when a sync cycle is declined: offline,
	// already running, or the engine is not initialized.
	ErrSyncUnavailable = errors.New("sync not available")

	// ErrSyncItemFailure wraps a failed upload of a single outbox item.
	ErrSyncItemFailure = errors.New("sync item upload failed")
)

// ValidationError carries the reason an input was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
