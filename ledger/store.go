/*
store.go - Persistence interfaces for the ledger engine

PURPOSE:
  Defines what the engine needs from a database without naming one.
  The SQLite store implements all of these; tests use it in-memory.

KEY INTERFACES:
  EntryStore:     Upsert-by-key ledger entry persistence + soft-delete
  FolioSequences: Atomic counter rows for document numbering
  AuditStore:     Append-only audit records

WRITE DISCIPLINE:
  - Entries: upsert on (source type, source id, side), replace amount,
    never accumulate. Soft delete only.
  - Sequences: increment and create must each be atomic; the caller
    (IssueFolio) handles the create/increment race.
  - Audit: append only. No update, no delete. Ever.

SEE ALSO:
  - store/sqlite/sqlite.go: Concrete implementation
  - billing package: Aggregates these into its Store interface
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryStore persists party ledger entries.
type EntryStore interface {
	// UpsertEntry inserts the entry, or replaces the active row with the
	// same (source type, source id, side) key. The stored amount is always
	// the caller's fully-recomputed value - never a delta.
	UpsertEntry(ctx context.Context, e Entry) error

	// ActiveEntriesForSource returns active (non-deleted) entries for a
	// source+side, oldest first. Steady state returns zero or one row;
	// more than one means legacy data needing repair.
	ActiveEntriesForSource(ctx context.Context, src SourceRef, side Side) ([]Entry, error)

	// EntriesForParty returns all entries (active and deleted) for a party,
	// newest first. Read-only, used for statements.
	EntriesForParty(ctx context.Context, partyID string) ([]Entry, error)

	// SoftDeleteEntriesForSources flags every active entry whose source is
	// in srcs as deleted at the given time. Rows are never removed.
	SoftDeleteEntriesForSources(ctx context.Context, srcs []SourceRef, at time.Time) error

	// SoftDeleteEntryByID flags one entry. Used by duplicate repair.
	SoftDeleteEntryByID(ctx context.Context, id string, at time.Time) error
}

// =============================================================================
// FOLIO SEQUENCES
// =============================================================================

// FolioScope identifies one counter row: (document type, year, month).
type FolioScope struct {
	DocumentType string
	Year         int
	Month        int
}

// FolioSequences persists the per-scope counters behind folio issuance.
// Both methods must be atomic at the database level; no table locks.
type FolioSequences interface {
	// IncrementSequence atomically bumps the counter for the scope and
	// returns the number issued (the pre-increment "next"). Returns
	// ErrSequenceNotFound if no row exists for the scope yet.
	IncrementSequence(ctx context.Context, scope FolioScope) (int, error)

	// CreateSequence inserts a counter row seeded so the first issued
	// number is 1 and the stored next value is 2. Returns
	// ErrSequenceExists if a concurrent caller created it first.
	CreateSequence(ctx context.Context, scope FolioScope) error
}

// =============================================================================
// AUDIT STORE
// =============================================================================

// AuditStore persists audit records. Append-only.
type AuditStore interface {
	AppendAudit(ctx context.Context, rec AuditRecord) error

	// AuditForRoot returns records for one root document, oldest first.
	AuditForRoot(ctx context.Context, rootType string, rootID string) ([]AuditRecord, error)
}
