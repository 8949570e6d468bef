/*
store.go - Persistence interfaces for the billing layer

PURPOSE:
  Aggregates everything the lifecycle manager needs from a database into
  a single Store interface, plus the transactional wrapper. One SQLite
  implementation backs all of it; the Manager never touches SQL.

TRANSACTION CONTRACT:
  Every lifecycle operation runs inside exactly ONE database transaction
  via TxStore.WithTx. The fn receives a Store bound to that transaction;
  an error return rolls everything back, including any folio counter
  increment attempted in the same operation.

SEE ALSO:
  - ledger/store.go: Entry, folio and audit interfaces embedded here
  - store/sqlite/sqlite.go: Concrete implementation
  - manager.go: The consumer
*/
package billing

import (
	"context"
	"time"

	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// =============================================================================
// PARTY STORE
// =============================================================================

// PartyStore persists parties. Parties are soft-deleted, never removed.
type PartyStore interface {
	InsertParty(ctx context.Context, p Party) error

	// GetParty returns the party regardless of soft-delete state, or
	// ledger.ErrNotFound if it does not exist at all.
	GetParty(ctx context.Context, id string) (*Party, error)

	// FindPartyBySystemKey returns the active party with the given system
	// key, or ledger.ErrNotFound.
	FindPartyBySystemKey(ctx context.Context, key string) (*Party, error)

	ListParties(ctx context.Context) ([]Party, error)
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

// DocumentFilter narrows ListDocuments. Zero value lists active documents
// of every type.
type DocumentFilter struct {
	Type           DocumentType
	Status         DocumentStatus
	PartyID        string
	IncludeDeleted bool
}

// DocumentStore persists documents and their line collections.
type DocumentStore interface {
	InsertDocument(ctx context.Context, d Document) error

	// GetDocument returns the document with its lines, regardless of
	// soft-delete state, or ledger.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// UpdateDocument writes the document's fields and fully replaces its
	// line collection with d.Lines.
	UpdateDocument(ctx context.Context, d Document) error

	ListDocuments(ctx context.Context, f DocumentFilter) ([]Document, error)
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

// PaymentStore persists payments.
type PaymentStore interface {
	InsertPayment(ctx context.Context, p Payment) error

	// GetPayment returns the payment regardless of soft-delete state, or
	// ledger.ErrNotFound.
	GetPayment(ctx context.Context, id string) (*Payment, error)

	UpdatePayment(ctx context.Context, p Payment) error

	// PaymentsForDocument returns the document's payments, oldest first.
	// activeOnly excludes soft-deleted rows.
	PaymentsForDocument(ctx context.Context, documentID string, activeOnly bool) ([]Payment, error)

	// SoftDeletePayments flags the given payments as deleted at the given
	// time. Rows are never removed.
	SoftDeletePayments(ctx context.Context, ids []string, at time.Time) error
}

// =============================================================================
// AGGREGATE STORE
// =============================================================================

// Store is everything a lifecycle operation can touch.
type Store interface {
	PartyStore
	DocumentStore
	PaymentStore
	ledger.EntryStore
	ledger.FolioSequences
	ledger.AuditStore
}

// TxStore wraps Store with transaction support. WithTx executes fn inside a
// single database transaction: error return rolls back, nil commits.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
