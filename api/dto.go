/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  All monetary amounts travel as decimal strings ("1234.50"), never as
  floats. ledger.Money marshals itself that way; request DTOs carry
  strings that handlers parse with ledger.ParseMoney.

VALIDATION:
  Shape validation (parseable amounts, parseable dates) happens in
  handlers; business validation lives in billing.Manager.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: The domain model these mirror
*/
package api

import (
	"time"

	"github.com/ChristianRM-dev/Grow-sub001/billing"
	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// =============================================================================
// PARTIES
// =============================================================================

// PartyDTO represents a party in API responses.
type PartyDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	SystemKey string `json:"system_key,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreatePartyRequest is the request to create a party.
type CreatePartyRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// LineRequest is one document line in a create or update request.
type LineRequest struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CreateDocumentRequest is the request to create a document.
type CreateDocumentRequest struct {
	Type     string        `json:"type"`
	PartyID  string        `json:"party_id,omitempty"`
	Status   string        `json:"status,omitempty"`
	IssuedAt string        `json:"issued_at,omitempty"`
	Notes    string        `json:"notes,omitempty"`
	Lines    []LineRequest `json:"lines"`
}

// UpdateDocumentRequest replaces a document's editable fields and lines.
type UpdateDocumentRequest struct {
	IssuedAt string        `json:"issued_at,omitempty"`
	Notes    string        `json:"notes,omitempty"`
	Lines    []LineRequest `json:"lines"`
}

// LineDTO represents one document line in responses.
type LineDTO struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// DocumentDTO represents a document in API responses.
type DocumentDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Folio     string    `json:"folio"`
	PartyID   string    `json:"party_id"`
	Status    string    `json:"status"`
	Total     string    `json:"total"`
	Notes     string    `json:"notes,omitempty"`
	IssuedAt  string    `json:"issued_at"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Deleted   bool      `json:"deleted,omitempty"`
	Lines     []LineDTO `json:"lines,omitempty"`
}

// BalanceDTO represents a document's reconciled balance.
type BalanceDTO struct {
	DocumentID string `json:"document_id"`
	Total      string `json:"total"`
	Paid       string `json:"paid"`
	Balance    string `json:"balance"`
	AsOf       string `json:"as_of"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentRequest creates or updates a payment.
type PaymentRequest struct {
	Method    string `json:"method"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at,omitempty"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	PartyID    string `json:"party_id"`
	Direction  string `json:"direction"`
	Method     string `json:"method"`
	Amount     string `json:"amount"`
	Reference  string `json:"reference,omitempty"`
	Notes      string `json:"notes,omitempty"`
	PaidAt     string `json:"paid_at"`
	Deleted    bool   `json:"deleted,omitempty"`
}

// =============================================================================
// LEDGER AND AUDIT
// =============================================================================

// LedgerEntryDTO represents one party ledger row.
type LedgerEntryDTO struct {
	ID         string `json:"id"`
	PartyID    string `json:"party_id"`
	Side       string `json:"side"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Amount     string `json:"amount"`
	Reference  string `json:"reference,omitempty"`
	OccurredAt string `json:"occurred_at"`
	Deleted    bool   `json:"deleted,omitempty"`
}

// AuditChangeDTO is one before/after pair. Null before or after means the
// value was absent or removed, not zero.
type AuditChangeDTO struct {
	Field  string  `json:"field"`
	Before *string `json:"before"`
	After  *string `json:"after"`
}

// AuditRecordDTO represents one audit trail record.
type AuditRecordDTO struct {
	ID         string           `json:"id"`
	EventKey   string           `json:"event_key"`
	Action     string           `json:"action"`
	EntityType string           `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	ActorName  string           `json:"actor_name"`
	ActorRole  string           `json:"actor_role,omitempty"`
	OccurredAt string           `json:"occurred_at"`
	Changes    []AuditChangeDTO `json:"changes,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toPartyDTO(p billing.Party) PartyDTO {
	return PartyDTO{
		ID:        p.ID,
		Name:      p.Name,
		Kind:      string(p.Kind),
		SystemKey: p.SystemKey,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toDocumentDTO(d billing.Document) DocumentDTO {
	dto := DocumentDTO{
		ID:        d.ID,
		Type:      string(d.Type),
		Folio:     d.Folio,
		PartyID:   d.PartyID,
		Status:    string(d.Status),
		Total:     d.Total.String(),
		Notes:     d.Notes,
		IssuedAt:  d.IssuedAt.Format(time.RFC3339),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
		Deleted:   d.Deleted,
	}
	for _, l := range d.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			UnitPrice:   l.UnitPrice.String(),
			Subtotal:    l.Subtotal.String(),
		})
	}
	return dto
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	return PaymentDTO{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		PartyID:    p.PartyID,
		Direction:  string(p.Direction),
		Method:     string(p.Method),
		Amount:     p.Amount.String(),
		Reference:  p.Reference,
		Notes:      p.Notes,
		PaidAt:     p.PaidAt.Format(time.RFC3339),
		Deleted:    p.Deleted,
	}
}

func toLedgerEntryDTO(e ledger.Entry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:         e.ID,
		PartyID:    e.PartyID,
		Side:       string(e.Side),
		SourceType: string(e.Source.Type),
		SourceID:   e.Source.ID,
		Amount:     e.Amount.String(),
		Reference:  e.Reference,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
		Deleted:    e.Deleted,
	}
}

func toAuditRecordDTO(rec ledger.AuditRecord) AuditRecordDTO {
	dto := AuditRecordDTO{
		ID:         rec.ID,
		EventKey:   rec.EventKey,
		Action:     string(rec.Action),
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		ActorName:  rec.Actor.Name,
		ActorRole:  rec.Actor.Role,
		OccurredAt: rec.OccurredAt.Format(time.RFC3339),
	}
	for _, c := range rec.Changes {
		dto.Changes = append(dto.Changes, AuditChangeDTO{
			Field:  c.Field,
			Before: renderChange(c.Before),
			After:  renderChange(c.After),
		})
	}
	return dto
}

func renderChange(v *ledger.ChangeValue) *string {
	if v == nil {
		return nil
	}
	s := v.Render()
	return &s
}
