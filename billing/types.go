/*
Package billing implements the document lifecycle layer of the nursery
management system.

PURPOSE:
  Maps business documents - sales notes, supplier purchases, quotations -
  and their payments onto the ledger engine. The Manager in this package
  is the ONLY component allowed to create, update, cancel or reactivate a
  billable document, write ledger entries, or append audit records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Party: customer/supplier/both, optionally system-reserved
  - Document: a billable document with a folio, a party and line items
  - Payment: a monetary movement against exactly one document
  - Direction: money coming in vs going out

DOCUMENT TYPES AND THE LEDGER:
  sales_note        -> receivable side, settled by incoming payments
  supplier_purchase -> payable side, settled by outgoing payments
  quotation         -> folio only; never touches the ledger and takes
                       no payments (an offer is not a debt)

SEE ALSO:
  - manager.go: Lifecycle orchestration
  - balance.go: Outstanding balance reconciliation
  - cascade.go: Soft-delete cascade planning
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// =============================================================================
// PARTIES
// =============================================================================

// PartyKind classifies how the business relates to a party.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
	PartyBoth     PartyKind = "both"
)

// WalkInCustomerKey is the system key of the implicit party that anonymous
// "public" sales are recorded against. Materialized on first use.
const WalkInCustomerKey = "walk_in_customer"

// Party is a customer, supplier or both. Parties with a SystemKey are
// system-reserved and must never be deleted.
type Party struct {
	ID        string
	Name      string
	Kind      PartyKind
	SystemKey string // empty for regular parties
	CreatedAt time.Time
	Deleted   bool
	DeletedAt *time.Time
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// DocumentType is the kind of billable document.
type DocumentType string

const (
	TypeSalesNote        DocumentType = "sales_note"
	TypeSupplierPurchase DocumentType = "supplier_purchase"
	TypeQuotation        DocumentType = "quotation"
)

// LedgerSide returns the ledger side a document of this type posts to.
// Quotations post nowhere: the second return is false.
func (t DocumentType) LedgerSide() (ledger.Side, bool) {
	switch t {
	case TypeSalesNote:
		return ledger.SideReceivable, true
	case TypeSupplierPurchase:
		return ledger.SidePayable, true
	default:
		return "", false
	}
}

// SettlementDirection returns which payment direction settles this type:
// money in for receivables, money out for payables.
func (t DocumentType) SettlementDirection() Direction {
	if t == TypeSupplierPurchase {
		return DirectionOut
	}
	return DirectionIn
}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeSalesNote, TypeSupplierPurchase, TypeQuotation:
		return true
	}
	return false
}

// DocumentStatus is the document state machine:
// draft -> confirmed -> cancelled, with cancelled -> confirmed reactivation.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusConfirmed DocumentStatus = "confirmed"
	StatusCancelled DocumentStatus = "cancelled"
)

// Line is one line item. Lines are a child collection, fully replaced on
// every document update - never diffed.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   ledger.Money
	Subtotal    ledger.Money
}

// Document is a billable document against a party. Total is authoritative:
// always the sum of Lines at the time of last save.
type Document struct {
	ID        string
	Type      DocumentType
	Folio     string
	PartyID   string
	Status    DocumentStatus
	Total     ledger.Money
	Notes     string
	IssuedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
	DeletedAt *time.Time
	Lines     []Line
}

// Source returns the document's ledger source reference.
func (d *Document) Source() ledger.SourceRef {
	return ledger.SourceRef{Type: ledger.SourceDocument, ID: d.ID}
}

// =============================================================================
// PAYMENTS
// =============================================================================

// Direction distinguishes money received from money paid out.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// PaymentMethod is how the money moved.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodCredit   PaymentMethod = "credit"
	MethodExchange PaymentMethod = "exchange"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodCredit, MethodExchange:
		return true
	}
	return false
}

// Payment is a monetary movement tied to exactly one document and one party.
// Amount is always positive; Direction carries the sign.
type Payment struct {
	ID         string
	DocumentID string
	PartyID    string
	Direction  Direction
	Method     PaymentMethod
	Amount     ledger.Money
	Reference  string
	Notes      string
	PaidAt     time.Time
	CreatedAt  time.Time
	Deleted    bool
	DeletedAt  *time.Time
}

// Source returns the payment's ledger source reference.
func (p *Payment) Source() ledger.SourceRef {
	return ledger.SourceRef{Type: ledger.SourcePayment, ID: p.ID}
}

// =============================================================================
// INPUTS
// =============================================================================

// LineInput is one submitted line item. Subtotal is recomputed server-side,
// never trusted from the caller.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   ledger.Money
}

// DocumentInput creates a document. Empty PartyID on a sales note records a
// walk-in "public" sale against the materialized system party.
type DocumentInput struct {
	Type     DocumentType
	PartyID  string
	Status   DocumentStatus // empty defaults to confirmed
	IssuedAt time.Time      // zero defaults to now
	Notes    string
	Lines    []LineInput
}

// DocumentUpdate replaces a document's lines and editable fields. The party
// and type of a document are fixed at creation.
type DocumentUpdate struct {
	IssuedAt time.Time // zero keeps the current value
	Notes    string
	Lines    []LineInput
}

// PaymentInput creates or updates a payment. Direction is derived from the
// document type, not submitted.
type PaymentInput struct {
	Method    PaymentMethod
	Amount    ledger.Money
	PaidAt    time.Time // zero defaults to now
	Reference string
	Notes     string
}

// PartyInput creates a party.
type PartyInput struct {
	Name string
	Kind PartyKind
}

// BalanceResult is the outcome of reconciling a document.
type BalanceResult struct {
	Total   ledger.Money
	Paid    ledger.Money
	Balance ledger.Money
}
