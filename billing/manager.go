/*
manager.go - Document lifecycle orchestration

PURPOSE:
  The single place allowed to create, update, cancel or reactivate a
  billable document or one of its payments - and the only writer of
  ledger entries and audit records. Everything else in the system reads.

ONE OPERATION, ONE TRANSACTION:
  Every mutating method opens exactly one database transaction and
  sequences its work inside it: read party -> compute decimals -> write
  document -> upsert ledger entry -> append audit record. A failure
  anywhere rolls back the whole operation, including any folio counter
  increment from the same attempt. A folio committed by a PREVIOUS
  transaction is never reclaimed, even if its document is later
  cancelled.

STATE MACHINE:
  draft -> confirmed -> cancelled, with cancelled -> confirmed
  reactivation. Reactivation restores the document and its ledger entry
  but deliberately does NOT resurrect soft-deleted payments: it restores
  the debt, not the payment history, so money possibly refunded through
  other means is never silently re-credited.

VALIDATION:
  All validation failures (missing party, amount exceeds remaining
  balance, document not found, bad transition) surface BEFORE any write.

SEE ALSO:
  - balance.go: Reconciliation formula
  - cascade.go: Cancellation cascade planning
  - ledger/folio.go: Folio issuance protocol
  - ledger/repair.go: Duplicate entry self-healing
*/
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// Manager orchestrates the document lifecycle over a transactional store.
type Manager struct {
	store TxStore
	log   zerolog.Logger

	// Injection points for tests.
	now   func() time.Time
	newID func() string
}

// NewManager creates a lifecycle manager.
func NewManager(store TxStore, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// CreateDocument validates, numbers and persists a new billable document,
// posts its ledger entry and appends the audit record. Returns the new id.
func (m *Manager) CreateDocument(ctx context.Context, actor ledger.Actor, in DocumentInput) (string, error) {
	if !in.Type.Valid() {
		return "", &ledger.ValidationError{Field: "type", Message: fmt.Sprintf("unknown document type %q", in.Type)}
	}
	status := in.Status
	if status == "" {
		status = StatusConfirmed
	}
	if status == StatusCancelled {
		return "", &ledger.ValidationError{Field: "status", Message: "documents cannot be created cancelled"}
	}
	lines, total, err := buildLines(in.Lines)
	if err != nil {
		return "", err
	}

	now := m.now()
	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = now
	}
	id := m.newID()

	err = m.store.WithTx(ctx, func(s Store) error {
		party, err := m.resolveParty(ctx, s, in.Type, in.PartyID, now)
		if err != nil {
			return err
		}

		folio, _, err := ledger.IssueFolio(ctx, s, string(in.Type), issuedAt)
		if err != nil {
			return err
		}

		doc := Document{
			ID:        id,
			Type:      in.Type,
			Folio:     folio,
			PartyID:   party.ID,
			Status:    status,
			Total:     total,
			Notes:     in.Notes,
			IssuedAt:  issuedAt,
			CreatedAt: now,
			UpdatedAt: now,
			Lines:     lines,
		}
		if err := s.InsertDocument(ctx, doc); err != nil {
			return err
		}

		if err := m.upsertDocumentEntry(ctx, s, &doc, now); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(in.Type) + ".created",
			Action:     ledger.AuditCreated,
			EntityType: "document",
			EntityID:   doc.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "folio", After: ledger.TextValue(folio)},
				{Field: "party", After: ledger.TextValue(party.Name)},
				{Field: "total", After: ledger.DecimalValue(total)},
			},
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateDocument replaces the document's lines and editable fields,
// recomputes the total and re-upserts the same ledger entry in place.
func (m *Manager) UpdateDocument(ctx context.Context, actor ledger.Actor, id string, in DocumentUpdate) error {
	lines, total, err := buildLines(in.Lines)
	if err != nil {
		return err
	}

	now := m.now()
	return m.store.WithTx(ctx, func(s Store) error {
		doc, err := m.activeDocument(ctx, s, id)
		if err != nil {
			return err
		}

		before := doc.Total
		doc.Lines = lines
		doc.Total = total
		doc.Notes = in.Notes
		if !in.IssuedAt.IsZero() {
			doc.IssuedAt = in.IssuedAt
		}
		doc.UpdatedAt = now
		if err := s.UpdateDocument(ctx, *doc); err != nil {
			return err
		}

		if err := m.upsertDocumentEntry(ctx, s, doc, now); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".updated",
			Action:     ledger.AuditUpdated,
			EntityType: "document",
			EntityID:   doc.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "total", Before: ledger.DecimalValue(before), After: ledger.DecimalValue(total)},
			},
		})
	})
}

// CancelDocument marks the document cancelled and cascades the soft delete
// to its active payments and every ledger entry derived from either. The
// audit change carries a nil after: removed from active accounting, not
// zeroed.
func (m *Manager) CancelDocument(ctx context.Context, actor ledger.Actor, id string) error {
	now := m.now()
	return m.store.WithTx(ctx, func(s Store) error {
		doc, err := m.activeDocument(ctx, s, id)
		if err != nil {
			return err
		}

		payments, err := s.PaymentsForDocument(ctx, doc.ID, true)
		if err != nil {
			return err
		}
		plan := PlanCancelCascade(doc, payments)

		if len(plan.PaymentIDs) > 0 {
			if err := s.SoftDeletePayments(ctx, plan.PaymentIDs, now); err != nil {
				return err
			}
		}
		if err := s.SoftDeleteEntriesForSources(ctx, plan.Sources, now); err != nil {
			return err
		}

		doc.Status = StatusCancelled
		doc.Deleted = true
		doc.DeletedAt = &now
		doc.UpdatedAt = now
		if err := s.UpdateDocument(ctx, *doc); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".cancelled",
			Action:     ledger.AuditCancelled,
			EntityType: "document",
			EntityID:   doc.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "total", Before: ledger.DecimalValue(doc.Total), After: nil},
			},
		})
	})
}

// ReactivateDocument restores a cancelled document and re-posts its ledger
// entry. Previously soft-deleted payments stay deleted: the debt comes
// back, the payment history does not.
func (m *Manager) ReactivateDocument(ctx context.Context, actor ledger.Actor, id string) error {
	now := m.now()
	return m.store.WithTx(ctx, func(s Store) error {
		doc, err := s.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != StatusCancelled {
			return fmt.Errorf("document %s is %s, not cancelled: %w", id, doc.Status, ledger.ErrInvalidTransition)
		}

		doc.Status = StatusConfirmed
		doc.Deleted = false
		doc.DeletedAt = nil
		doc.UpdatedAt = now
		if err := s.UpdateDocument(ctx, *doc); err != nil {
			return err
		}

		if err := m.upsertDocumentEntry(ctx, s, doc, now); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".reactivated",
			Action:     ledger.AuditReactivated,
			EntityType: "document",
			EntityID:   doc.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "total", Before: nil, After: ledger.DecimalValue(doc.Total)},
			},
		})
	})
}

// =============================================================================
// PAYMENT OPERATIONS
// =============================================================================

// CreatePayment records a payment against a document after checking it does
// not exceed the remaining balance, posts the reducing ledger entry and
// audits the old and new balance as one combined change row.
func (m *Manager) CreatePayment(ctx context.Context, actor ledger.Actor, documentID string, in PaymentInput) (string, error) {
	if err := validatePaymentInput(in); err != nil {
		return "", err
	}

	now := m.now()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	id := m.newID()

	err := m.store.WithTx(ctx, func(s Store) error {
		doc, err := m.payableDocument(ctx, s, documentID)
		if err != nil {
			return err
		}

		payments, err := s.PaymentsForDocument(ctx, doc.ID, true)
		if err != nil {
			return err
		}
		res := Reconcile(doc.Total, doc.Type.SettlementDirection(), payments, "")
		if in.Amount.GreaterThan(res.Balance) {
			return &ledger.ExceedsBalanceError{DocumentID: doc.ID, Requested: in.Amount, Remaining: res.Balance}
		}

		p := Payment{
			ID:         id,
			DocumentID: doc.ID,
			PartyID:    doc.PartyID,
			Direction:  doc.Type.SettlementDirection(),
			Method:     in.Method,
			Amount:     in.Amount,
			Reference:  in.Reference,
			Notes:      in.Notes,
			PaidAt:     paidAt,
			CreatedAt:  now,
		}
		if err := s.InsertPayment(ctx, p); err != nil {
			return err
		}

		if err := m.upsertPaymentEntry(ctx, s, doc, &p); err != nil {
			return err
		}

		newBalance := res.Balance.Sub(in.Amount).FloorZero()
		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".payment.created",
			Action:     ledger.AuditCreated,
			EntityType: "payment",
			EntityID:   p.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "amount", After: ledger.DecimalValue(in.Amount)},
				{Field: "balance", Before: ledger.DecimalValue(res.Balance), After: ledger.DecimalValue(newBalance)},
			},
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdatePayment changes a payment's amount or details. The maximum allowed
// amount is the balance recomputed EXCLUDING the payment being edited, so
// raising a payment up to the document total is always legal.
func (m *Manager) UpdatePayment(ctx context.Context, actor ledger.Actor, paymentID string, in PaymentInput) error {
	if err := validatePaymentInput(in); err != nil {
		return err
	}

	now := m.now()
	return m.store.WithTx(ctx, func(s Store) error {
		p, err := m.activePayment(ctx, s, paymentID)
		if err != nil {
			return err
		}
		doc, err := m.activeDocument(ctx, s, p.DocumentID)
		if err != nil {
			return err
		}

		payments, err := s.PaymentsForDocument(ctx, doc.ID, true)
		if err != nil {
			return err
		}
		// Room left without this payment is the cap for its new amount.
		without := Reconcile(doc.Total, doc.Type.SettlementDirection(), payments, p.ID)
		if in.Amount.GreaterThan(without.Balance) {
			return &ledger.ExceedsBalanceError{DocumentID: doc.ID, Requested: in.Amount, Remaining: without.Balance}
		}

		oldAmount := p.Amount
		oldBalance := without.Balance.Sub(oldAmount).FloorZero()
		newBalance := without.Balance.Sub(in.Amount).FloorZero()

		p.Amount = in.Amount
		p.Method = in.Method
		p.Reference = in.Reference
		p.Notes = in.Notes
		if !in.PaidAt.IsZero() {
			p.PaidAt = in.PaidAt
		}
		if err := s.UpdatePayment(ctx, *p); err != nil {
			return err
		}

		if err := m.upsertPaymentEntry(ctx, s, doc, p); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".payment.updated",
			Action:     ledger.AuditUpdated,
			EntityType: "payment",
			EntityID:   p.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "amount", Before: ledger.DecimalValue(oldAmount), After: ledger.DecimalValue(in.Amount)},
				{Field: "balance", Before: ledger.DecimalValue(oldBalance), After: ledger.DecimalValue(newBalance)},
			},
		})
	})
}

// SoftDeletePayment removes a payment from active accounting along with its
// ledger entry. The document's balance grows back immediately because the
// balance is always recomputed from active payments.
func (m *Manager) SoftDeletePayment(ctx context.Context, actor ledger.Actor, paymentID string) error {
	now := m.now()
	return m.store.WithTx(ctx, func(s Store) error {
		p, err := m.activePayment(ctx, s, paymentID)
		if err != nil {
			return err
		}
		doc, err := s.GetDocument(ctx, p.DocumentID)
		if err != nil {
			return err
		}

		payments, err := s.PaymentsForDocument(ctx, doc.ID, true)
		if err != nil {
			return err
		}
		before := Reconcile(doc.Total, doc.Type.SettlementDirection(), payments, "")
		after := Reconcile(doc.Total, doc.Type.SettlementDirection(), payments, p.ID)

		if err := s.SoftDeletePayments(ctx, []string{p.ID}, now); err != nil {
			return err
		}
		if err := s.SoftDeleteEntriesForSources(ctx, []ledger.SourceRef{p.Source()}, now); err != nil {
			return err
		}

		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".payment.deleted",
			Action:     ledger.AuditDeleted,
			EntityType: "payment",
			EntityID:   p.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "amount", Before: ledger.DecimalValue(p.Amount), After: nil},
				{Field: "balance", Before: ledger.DecimalValue(before.Balance), After: ledger.DecimalValue(after.Balance)},
			},
		})
	})
}

// =============================================================================
// READS
// =============================================================================

// ComputeBalance reconciles a document's outstanding balance from its
// active payments. Fresh aggregation on every call.
func (m *Manager) ComputeBalance(ctx context.Context, documentID string) (BalanceResult, error) {
	doc, err := m.store.GetDocument(ctx, documentID)
	if err != nil {
		return BalanceResult{}, err
	}
	payments, err := m.store.PaymentsForDocument(ctx, doc.ID, true)
	if err != nil {
		return BalanceResult{}, err
	}
	return Reconcile(doc.Total, doc.Type.SettlementDirection(), payments, ""), nil
}

// GetDocument returns a document with its lines.
func (m *Manager) GetDocument(ctx context.Context, id string) (*Document, error) {
	return m.store.GetDocument(ctx, id)
}

// ListDocuments returns documents matching the filter.
func (m *Manager) ListDocuments(ctx context.Context, f DocumentFilter) ([]Document, error) {
	return m.store.ListDocuments(ctx, f)
}

// PaymentsForDocument returns a document's payments.
func (m *Manager) PaymentsForDocument(ctx context.Context, documentID string, activeOnly bool) ([]Payment, error) {
	return m.store.PaymentsForDocument(ctx, documentID, activeOnly)
}

// AuditForDocument returns the audit trail rooted at a document.
func (m *Manager) AuditForDocument(ctx context.Context, documentID string) ([]ledger.AuditRecord, error) {
	doc, err := m.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return m.store.AuditForRoot(ctx, string(doc.Type), doc.ID)
}

// CreateParty registers a regular (non-system) party.
func (m *Manager) CreateParty(ctx context.Context, in PartyInput) (string, error) {
	if in.Name == "" {
		return "", &ledger.ValidationError{Field: "name", Message: "party name is required"}
	}
	kind := in.Kind
	if kind == "" {
		kind = PartyCustomer
	}
	p := Party{
		ID:        m.newID(),
		Name:      in.Name,
		Kind:      kind,
		CreatedAt: m.now(),
	}
	if err := m.store.InsertParty(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// ListParties returns all parties.
func (m *Manager) ListParties(ctx context.Context) ([]Party, error) {
	return m.store.ListParties(ctx)
}

// PartyLedger returns a party's full ledger history, soft-deleted rows
// included, newest first.
func (m *Manager) PartyLedger(ctx context.Context, partyID string) ([]ledger.Entry, error) {
	if _, err := m.store.GetParty(ctx, partyID); err != nil {
		return nil, err
	}
	return m.store.EntriesForParty(ctx, partyID)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// RepairLedger collapses any duplicate ledger entries for a document and
// its active payments. Self-healing for legacy data; returns how many
// duplicates were removed.
func (m *Manager) RepairLedger(ctx context.Context, actor ledger.Actor, documentID string) (int, error) {
	now := m.now()
	removed := 0

	err := m.store.WithTx(ctx, func(s Store) error {
		doc, err := s.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		side, ok := doc.Type.LedgerSide()
		if !ok {
			return nil
		}

		sources := []ledger.SourceRef{doc.Source()}
		payments, err := s.PaymentsForDocument(ctx, doc.ID, true)
		if err != nil {
			return err
		}
		for i := range payments {
			sources = append(sources, payments[i].Source())
		}

		for _, src := range sources {
			_, n, err := ledger.EnsureSingleEntryForSource(ctx, s, m.log, src, side, now)
			if err != nil {
				return err
			}
			removed += n
		}

		if removed == 0 {
			return nil
		}
		return s.AppendAudit(ctx, ledger.AuditRecord{
			ID:         m.newID(),
			EventKey:   string(doc.Type) + ".ledger.repaired",
			Action:     ledger.AuditRepaired,
			EntityType: "document",
			EntityID:   doc.ID,
			RootType:   string(doc.Type),
			RootID:     doc.ID,
			Actor:      actor,
			OccurredAt: now,
			Changes: []ledger.Change{
				{Field: "duplicates_removed", After: ledger.TextValue(fmt.Sprintf("%d", removed))},
			},
		})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveParty loads and checks the document's party. A sales note with no
// party is a walk-in sale: the system "public" party is found or silently
// materialized.
func (m *Manager) resolveParty(ctx context.Context, s Store, docType DocumentType, partyID string, now time.Time) (*Party, error) {
	if partyID != "" {
		p, err := s.GetParty(ctx, partyID)
		if err != nil {
			return nil, err
		}
		if p.Deleted {
			return nil, &ledger.ValidationError{Field: "party_id", Message: fmt.Sprintf("party %s is deleted", partyID)}
		}
		return p, nil
	}

	if docType != TypeSalesNote {
		return nil, &ledger.ValidationError{Field: "party_id", Message: "party is required"}
	}

	p, err := s.FindPartyBySystemKey(ctx, WalkInCustomerKey)
	if err == nil {
		return p, nil
	}
	if !ledger.IsNotFound(err) {
		return nil, err
	}

	walkIn := Party{
		ID:        m.newID(),
		Name:      "Walk-in customer",
		Kind:      PartyCustomer,
		SystemKey: WalkInCustomerKey,
		CreatedAt: now,
	}
	if err := s.InsertParty(ctx, walkIn); err != nil {
		return nil, err
	}
	m.log.Info().Str("party_id", walkIn.ID).Msg("materialized walk-in customer party")
	return &walkIn, nil
}

// upsertDocumentEntry posts (or re-posts) the document's own ledger entry.
// Quotations post nothing.
func (m *Manager) upsertDocumentEntry(ctx context.Context, s Store, doc *Document, now time.Time) error {
	side, ok := doc.Type.LedgerSide()
	if !ok {
		return nil
	}
	return s.UpsertEntry(ctx, ledger.Entry{
		ID:         m.newID(),
		PartyID:    doc.PartyID,
		Side:       side,
		Source:     doc.Source(),
		Amount:     doc.Total,
		Reference:  doc.Folio,
		Notes:      doc.Notes,
		OccurredAt: doc.IssuedAt,
		CreatedAt:  now,
	})
}

// upsertPaymentEntry posts the payment's reducing entry: same side as the
// document, negative amount.
func (m *Manager) upsertPaymentEntry(ctx context.Context, s Store, doc *Document, p *Payment) error {
	side, ok := doc.Type.LedgerSide()
	if !ok {
		return nil
	}
	return s.UpsertEntry(ctx, ledger.Entry{
		ID:         m.newID(),
		PartyID:    p.PartyID,
		Side:       side,
		Source:     p.Source(),
		Amount:     p.Amount.Neg(),
		Reference:  doc.Folio,
		Notes:      p.Reference,
		OccurredAt: p.PaidAt,
		CreatedAt:  p.CreatedAt,
	})
}

// activeDocument loads a document and rejects deleted/cancelled ones.
func (m *Manager) activeDocument(ctx context.Context, s Store, id string) (*Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Deleted || doc.Status == StatusCancelled {
		return nil, fmt.Errorf("document %s is cancelled: %w", id, ledger.ErrInvalidTransition)
	}
	return doc, nil
}

// payableDocument loads a document that can accept payments.
func (m *Manager) payableDocument(ctx context.Context, s Store, id string) (*Document, error) {
	doc, err := m.activeDocument(ctx, s, id)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Type.LedgerSide(); !ok {
		return nil, &ledger.ValidationError{Field: "document_id", Message: "quotations do not take payments"}
	}
	return doc, nil
}

// activePayment loads a payment and rejects deleted ones.
func (m *Manager) activePayment(ctx context.Context, s Store, id string) (*Payment, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, &ledger.NotFoundError{Kind: "payment", ID: id}
	}
	return p, nil
}

// buildLines recomputes subtotals and the document total from submitted
// lines. Caller-supplied subtotals are never trusted.
func buildLines(in []LineInput) ([]Line, ledger.Money, error) {
	if len(in) == 0 {
		return nil, ledger.Zero(), &ledger.ValidationError{Field: "lines", Message: "at least one line is required"}
	}

	lines := make([]Line, 0, len(in))
	total := ledger.Zero()
	for i, li := range in {
		if li.Quantity.Sign() <= 0 {
			return nil, ledger.Zero(), &ledger.ValidationError{
				Field:   fmt.Sprintf("lines[%d].quantity", i),
				Message: "quantity must be positive",
			}
		}
		if li.UnitPrice.IsNegative() {
			return nil, ledger.Zero(), &ledger.ValidationError{
				Field:   fmt.Sprintf("lines[%d].unit_price", i),
				Message: "unit price cannot be negative",
			}
		}
		subtotal := li.UnitPrice.Mul(li.Quantity)
		lines = append(lines, Line{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	return lines, total, nil
}

func validatePaymentInput(in PaymentInput) error {
	if !in.Method.Valid() {
		return &ledger.ValidationError{Field: "method", Message: fmt.Sprintf("unknown payment method %q", in.Method)}
	}
	if !in.Amount.IsPositive() {
		return &ledger.ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}
