/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All sentinel and structured errors in one place. The billing package
  wraps these with document-level context; the API maps them to HTTP
  status codes via the Is* helpers.

ERROR CATEGORIES:
  1. Validation errors - business rule violations, surfaced to callers
     with a human-readable message, never silently corrected
  2. Conflict errors - unique-constraint races, recovered locally where
     possible (folio issuance) and invisible to callers on success
  3. Not-found errors - missing parties, documents, payments
  4. Everything else - fatal, propagated unchanged, rolls back the
     enclosing transaction

SEE ALSO:
  - folio.go: Uses ErrSequenceExists / ErrSequenceNotFound
  - billing package: Wraps ErrExceedsBalance with amounts
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrValidation marks business rule violations. Always wrapped with a
	// message specific enough to display.
	ErrValidation = errors.New("validation failed")

	// ErrExceedsBalance is returned when a payment amount exceeds the
	// document's remaining balance.
	ErrExceedsBalance = errors.New("amount exceeds pending balance")

	// ErrSequenceNotFound is returned by folio stores when no counter row
	// exists for a scope yet. Recovered by the create path in IssueFolio.
	ErrSequenceNotFound = errors.New("folio sequence not found")

	// ErrSequenceExists is returned when creating a counter row that a
	// concurrent first-caller already created. Recovered by retrying the
	// increment path.
	ErrSequenceExists = errors.New("folio sequence already exists")

	// ErrUniqueViolation is the generic unique-constraint error surfaced by
	// stores. Outside folio issuance it is fatal.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrInvalidTransition is returned for illegal document state changes
	// (e.g. reactivating a document that is not cancelled).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError carries a field-level message for display.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ExceedsBalanceError reports how much room was actually left.
type ExceedsBalanceError struct {
	DocumentID string
	Requested  Money
	Remaining  Money
}

func (e *ExceedsBalanceError) Error() string {
	return fmt.Sprintf("amount %s exceeds pending balance %s on document %s",
		e.Requested.StringFixed(), e.Remaining.StringFixed(), e.DocumentID)
}

func (e *ExceedsBalanceError) Unwrap() error { return ErrExceedsBalance }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "party", "document", "payment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is a business rule violation the
// caller should display rather than retry.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrExceedsBalance) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether the error is a unique-constraint race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrSequenceExists)
}
