/*
audit.go - Immutable audit trail records

PURPOSE:
  Every balance-affecting mutation appends exactly one AuditRecord:
  what changed, on which entity, rooted at which billable document,
  performed by whom. Records are written once inside the mutating
  transaction and never updated or deleted.

ACTOR SNAPSHOT:
  The actor's name and role are copied into the record, not referenced
  by foreign key. If the user account is later deleted, the trail still
  reads correctly.

NULL-AFTER CONVENTION:
  A change whose After is nil means "removed from active accounting",
  which is NOT the same as a value of zero. Cancelling a 1000.00 sales
  note audits total 1000.00 -> nil, not 1000.00 -> 0.00. ChangeValue is
  a tagged optional precisely to preserve that distinction.

SEE ALSO:
  - store.go: AuditStore interface
  - billing/manager.go: The only writer of audit records
*/
package ledger

import (
	"encoding/json"
	"time"
)

// =============================================================================
// ACTIONS AND ACTORS
// =============================================================================

// AuditAction is the kind of mutation a record describes.
type AuditAction string

const (
	AuditCreated     AuditAction = "created"
	AuditUpdated     AuditAction = "updated"
	AuditCancelled   AuditAction = "cancelled"
	AuditReactivated AuditAction = "reactivated"
	AuditDeleted     AuditAction = "deleted"
	AuditRepaired    AuditAction = "repaired"
)

// Actor is a snapshot of who performed the action, taken at action time.
type Actor struct {
	Name string
	Role string
}

// =============================================================================
// CHANGE VALUES - Tagged optionals
// =============================================================================

// ChangeKind tags what a ChangeValue holds.
type ChangeKind string

const (
	ChangeDecimal ChangeKind = "decimal"
	ChangeText    ChangeKind = "text"
	ChangeJSON    ChangeKind = "json"
)

// ChangeValue is one side of a before/after pair. A nil *ChangeValue in a
// Change means the value is absent (record created) or removed from active
// accounting (record cancelled) - never coerce that to zero.
type ChangeValue struct {
	Kind    ChangeKind
	Decimal Money
	Text    string
	JSON    json.RawMessage
}

// DecimalValue wraps a monetary amount.
func DecimalValue(m Money) *ChangeValue {
	return &ChangeValue{Kind: ChangeDecimal, Decimal: m}
}

// TextValue wraps a string.
func TextValue(s string) *ChangeValue {
	return &ChangeValue{Kind: ChangeText, Text: s}
}

// JSONValue wraps a structured value.
func JSONValue(raw json.RawMessage) *ChangeValue {
	return &ChangeValue{Kind: ChangeJSON, JSON: raw}
}

// Render returns the storable string form of the value.
func (v *ChangeValue) Render() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case ChangeDecimal:
		return v.Decimal.String()
	case ChangeJSON:
		return string(v.JSON)
	default:
		return v.Text
	}
}

// Change is one named before/after pair within a record.
type Change struct {
	Field  string
	Before *ChangeValue
	After  *ChangeValue
}

// =============================================================================
// AUDIT RECORD
// =============================================================================

// AuditRecord is one immutable entry in the trail. RootType/RootID always
// point at the billable document the change is ultimately about, so the
// full history of a document - including its payments - is one query.
type AuditRecord struct {
	ID         string
	EventKey   string // e.g. "sales_note.payment.updated"
	Action     AuditAction
	EntityType string // "document", "payment", "ledger_entry"
	EntityID   string
	RootType   string
	RootID     string
	Actor      Actor
	OccurredAt time.Time
	Changes    []Change
}
