/*
handlers.go - HTTP API handlers for the billing service

PURPOSE:
  Exposes the document lifecycle and party ledger via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to
  billing.Manager for all business rules.

ENDPOINTS:
  Documents:
    GET    /api/documents                    List documents (filterable)
    POST   /api/documents                    Create document
    GET    /api/documents/{id}               Get document with lines
    PUT    /api/documents/{id}               Update lines/notes/date
    POST   /api/documents/{id}/cancel        Cancel (cascades)
    POST   /api/documents/{id}/reactivate    Reactivate a cancelled doc
    GET    /api/documents/{id}/balance       Reconciled balance
    GET    /api/documents/{id}/audit         Audit trail
    POST   /api/documents/{id}/repair        Collapse duplicate entries

  Payments:
    GET    /api/documents/{id}/payments      List payments
    POST   /api/documents/{id}/payments      Record payment
    PUT    /api/payments/{id}                Edit payment
    DELETE /api/payments/{id}                Soft-delete payment

  Parties:
    GET    /api/parties                      List parties
    POST   /api/parties                      Create party
    GET    /api/parties/{id}/ledger          Party ledger history

ACTOR ATTRIBUTION:
  Every mutating request carries the acting user in X-Actor-Name and
  X-Actor-Role headers. The audit trail snapshots those values; a
  missing name falls back to "system".

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (over-balance, invalid transition, duplicates)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/manager.go: The domain logic behind every endpoint
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ChristianRM-dev/Grow-sub001/billing"
	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Manager *billing.Manager
	Log     zerolog.Logger
}

// NewHandler creates a new handler around the billing manager.
func NewHandler(manager *billing.Manager, log zerolog.Logger) *Handler {
	return &Handler{Manager: manager, Log: log}
}

// actorFrom snapshots the acting user from request headers.
func actorFrom(r *http.Request) ledger.Actor {
	actor := ledger.Actor{
		Name: r.Header.Get("X-Actor-Name"),
		Role: r.Header.Get("X-Actor-Role"),
	}
	if actor.Name == "" {
		actor.Name = "system"
	}
	return actor
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// ListDocuments returns documents matching the query filters.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	f := billing.DocumentFilter{
		Type:           billing.DocumentType(r.URL.Query().Get("type")),
		Status:         billing.DocumentStatus(r.URL.Query().Get("status")),
		PartyID:        r.URL.Query().Get("party_id"),
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}

	docs, err := h.Manager.ListDocuments(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, 0, len(docs))
	for _, d := range docs {
		dtos = append(dtos, toDocumentDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDocument creates a document, issues its folio and posts its
// ledger entry in one transaction.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := billing.DocumentInput{
		Type:    billing.DocumentType(req.Type),
		PartyID: req.PartyID,
		Status:  billing.DocumentStatus(req.Status),
		Notes:   req.Notes,
	}
	if req.IssuedAt != "" {
		t, err := time.Parse(time.RFC3339, req.IssuedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid issued_at (use RFC3339)", err)
			return
		}
		in.IssuedAt = t
	}
	lines, err := parseLines(req.Lines)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid line", err)
		return
	}
	in.Lines = lines

	id, err := h.Manager.CreateDocument(r.Context(), actorFrom(r), in)
	if err != nil {
		writeDomainError(w, "Failed to create document", err)
		return
	}

	doc, err := h.Manager.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load created document", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(*doc))
}

// GetDocument returns one document with its lines.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Manager.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(*doc))
}

// UpdateDocument replaces a document's lines and editable fields.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := billing.DocumentUpdate{Notes: req.Notes}
	if req.IssuedAt != "" {
		t, err := time.Parse(time.RFC3339, req.IssuedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid issued_at (use RFC3339)", err)
			return
		}
		in.IssuedAt = t
	}
	lines, err := parseLines(req.Lines)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid line", err)
		return
	}
	in.Lines = lines

	id := chi.URLParam(r, "id")
	if err := h.Manager.UpdateDocument(r.Context(), actorFrom(r), id, in); err != nil {
		writeDomainError(w, "Failed to update document", err)
		return
	}

	doc, err := h.Manager.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load updated document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(*doc))
}

// CancelDocument cancels a document, cascading over its payments and
// ledger entries.
func (h *Handler) CancelDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.CancelDocument(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, "Failed to cancel document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": string(billing.StatusCancelled)})
}

// ReactivateDocument restores a cancelled document and its ledger entry.
func (h *Handler) ReactivateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.ReactivateDocument(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, "Failed to reactivate document", err)
		return
	}

	doc, err := h.Manager.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load reactivated document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(*doc))
}

// GetBalance returns the freshly reconciled balance for a document.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.Manager.ComputeBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		DocumentID: id,
		Total:      result.Total.String(),
		Paid:       result.Paid.String(),
		Balance:    result.Balance.String(),
		AsOf:       time.Now().UTC().Format(time.RFC3339),
	})
}

// GetAudit returns the audit trail rooted at a document.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	records, err := h.Manager.AuditForDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get audit trail", err)
		return
	}
	dtos := make([]AuditRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toAuditRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RepairDocument collapses duplicate ledger entries for a document.
func (h *Handler) RepairDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := h.Manager.RepairLedger(r.Context(), actorFrom(r), id)
	if err != nil {
		writeDomainError(w, "Failed to repair ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document_id": id, "duplicates_removed": removed})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns a document's payments. Deleted payments are
// included when ?include_deleted=true.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_deleted") != "true"
	payments, err := h.Manager.PaymentsForDocument(r.Context(), chi.URLParam(r, "id"), activeOnly)
	if err != nil {
		writeDomainError(w, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment records a payment against a document.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePaymentInput(w, r)
	if !ok {
		return
	}

	documentID := chi.URLParam(r, "id")
	id, err := h.Manager.CreatePayment(r.Context(), actorFrom(r), documentID, in)
	if err != nil {
		writeDomainError(w, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "document_id": documentID})
}

// UpdatePayment edits an active payment.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePaymentInput(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Manager.UpdatePayment(r.Context(), actorFrom(r), id, in); err != nil {
		writeDomainError(w, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

// DeletePayment soft-deletes a payment, restoring the document balance.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.SoftDeletePayment(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) decodePaymentInput(w http.ResponseWriter, r *http.Request) (billing.PaymentInput, bool) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return billing.PaymentInput{}, false
	}

	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return billing.PaymentInput{}, false
	}

	in := billing.PaymentInput{
		Method:    billing.PaymentMethod(req.Method),
		Amount:    amount,
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if req.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_at (use RFC3339)", err)
			return billing.PaymentInput{}, false
		}
		in.PaidAt = t
	}
	return in, true
}

// =============================================================================
// PARTY HANDLERS
// =============================================================================

// ListParties returns all active parties.
func (h *Handler) ListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.Manager.ListParties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list parties", err)
		return
	}
	dtos := make([]PartyDTO, 0, len(parties))
	for _, p := range parties {
		dtos = append(dtos, toPartyDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateParty registers a customer or supplier.
func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Manager.CreateParty(r.Context(), billing.PartyInput{
		Name: req.Name,
		Kind: billing.PartyKind(req.Kind),
	})
	if err != nil {
		writeDomainError(w, "Failed to create party", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// GetPartyLedger returns a party's full ledger history, newest first.
func (h *Handler) GetPartyLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Manager.PartyLedger(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get party ledger", err)
		return
	}
	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toLedgerEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func parseLines(reqs []LineRequest) ([]billing.LineInput, error) {
	lines := make([]billing.LineInput, 0, len(reqs))
	for _, lr := range reqs {
		qty, err := decimal.NewFromString(lr.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := ledger.ParseMoney(lr.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, billing.LineInput{
			Description: lr.Description,
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return lines, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrExceedsBalance) || errors.Is(err, ledger.ErrInvalidTransition) || ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
