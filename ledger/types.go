/*
Package ledger provides the core accounting engine for the nursery
management system.

PURPOSE:
  This package contains the derived-accounting primitives shared by every
  billable document type: monetary values, party ledger entries, folio
  sequence issuance, and the audit trail record shape. It knows nothing
  about sales notes or supplier purchases as such - the billing package
  maps those onto these primitives.

KEY CONCEPTS IN THIS FILE (types.go):
  - Side: receivable (money owed to the business) vs payable (owed by it)
  - SourceRef: the (source type, source id) pair identifying what a ledger
    entry is derived from - a document or a payment
  - Entry: one derived accounting row per (source, side)

CENTRAL INVARIANT:
  At most ONE active entry exists per (source type, source id, side).
  Entries are upserted on that composite key, never accumulated. The
  database's partial unique index is the final arbiter, not application
  logic.

DESIGN PRINCIPLES:
  1. Derived state: entries are a materialized view of documents and
     payments; they are never hand-edited outside the lifecycle manager.
  2. Replace, don't add: callers always pass the fully-recomputed signed
     amount. Upserts are therefore idempotent and retry-safe.
  3. Soft delete only: entries are flagged deleted, never removed, so the
     audit trail keeps its links.

SEE ALSO:
  - store.go: Persistence interfaces this engine requires
  - folio.go: Document numbering
  - audit.go: Immutable change records
  - billing package: The only writer of ledger state
*/
package ledger

import "time"

// =============================================================================
// SIDES AND SOURCES
// =============================================================================

// Side distinguishes money owed to the business from money it owes.
type Side string

const (
	SideReceivable Side = "receivable"
	SidePayable    Side = "payable"
)

// SourceType identifies what kind of record a ledger entry derives from.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourcePayment  SourceType = "payment"
)

// SourceRef identifies the originating record of a ledger entry.
// Together with Side it forms the upsert key.
type SourceRef struct {
	Type SourceType
	ID   string
}

// =============================================================================
// LEDGER ENTRY
// =============================================================================

// Entry is one derived accounting row. Amount is signed: positive increases
// what the party owes (or is owed), negative reduces it - a payment against
// a document always yields a negative entry on the document's side.
type Entry struct {
	ID         string
	PartyID    string
	Side       Side
	Source     SourceRef
	Amount     Money
	Reference  string
	Notes      string
	OccurredAt time.Time
	CreatedAt  time.Time
	Deleted    bool
	DeletedAt  *time.Time
}

// Key returns the composite upsert key of the entry.
func (e Entry) Key() EntryKey {
	return EntryKey{Source: e.Source, Side: e.Side}
}

// EntryKey is the composite key the single-active-entry invariant holds on.
type EntryKey struct {
	Source SourceRef
	Side   Side
}
