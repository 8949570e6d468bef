package billing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristianRM-dev/Grow-sub001/billing"
	"github.com/ChristianRM-dev/Grow-sub001/ledger"
	"github.com/ChristianRM-dev/Grow-sub001/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestManager(t *testing.T) (*billing.Manager, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return billing.NewManager(store, zerolog.Nop()), store
}

func testActor() ledger.Actor {
	return ledger.Actor{Name: "Maria", Role: "admin"}
}

func createCustomer(t *testing.T, m *billing.Manager, name string) string {
	id, err := m.CreateParty(context.Background(), billing.PartyInput{Name: name, Kind: billing.PartyCustomer})
	require.NoError(t, err)
	return id
}

func lines1000() []billing.LineInput {
	return []billing.LineInput{
		{Description: "Palm tree 2m", Quantity: decimal.NewFromInt(4), UnitPrice: ledger.MustMoney("200.00")},
		{Description: "Delivery", Quantity: decimal.NewFromInt(1), UnitPrice: ledger.MustMoney("200.00")},
	}
}

func createSalesNote(t *testing.T, m *billing.Manager, partyID string) string {
	id, err := m.CreateDocument(context.Background(), testActor(), billing.DocumentInput{
		Type:    billing.TypeSalesNote,
		PartyID: partyID,
		Lines:   lines1000(),
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// DOCUMENT CREATION
// =============================================================================

func TestCreateDocument_SalesNote(t *testing.T) {
	// GIVEN: A customer
	// WHEN: Creating a sales note with lines worth 1000
	// THEN: Folio is NN 01 for the month, total is the line sum, a single
	//       receivable ledger entry exists, and the audit trail started

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Vivero Juarez")

	id := createSalesNote(t, m, partyID)

	doc, err := m.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusConfirmed, doc.Status)
	assert.True(t, doc.Total.Equal(ledger.MustMoney("1000")))
	assert.Len(t, doc.Lines, 2)
	assert.True(t, doc.Lines[0].Subtotal.Equal(ledger.MustMoney("800")))
	assert.True(t, strings.HasSuffix(doc.Folio, "-01"), "first folio of the month, got %s", doc.Folio)

	entries, err := store.ActiveEntriesForSource(ctx, doc.Source(), ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(ledger.MustMoney("1000")))
	assert.Equal(t, partyID, entries[0].PartyID)

	records, err := m.AuditForDocument(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ledger.AuditCreated, records[0].Action)
	assert.Equal(t, "Maria", records[0].Actor.Name)
}

func TestCreateDocument_FoliosIncrementWithinScope(t *testing.T) {
	m, _ := newTestManager(t)
	partyID := createCustomer(t, m, "Customer A")

	id1 := createSalesNote(t, m, partyID)
	id2 := createSalesNote(t, m, partyID)

	doc1, err := m.GetDocument(context.Background(), id1)
	require.NoError(t, err)
	doc2, err := m.GetDocument(context.Background(), id2)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(doc1.Folio, "-01"))
	assert.True(t, strings.HasSuffix(doc2.Folio, "-02"))
}

func TestCreateDocument_WalkInCustomer(t *testing.T) {
	// GIVEN: A sales note with no party (public counter sale)
	// WHEN: Creating two such notes
	// THEN: The system walk-in party is materialized once and reused

	m, _ := newTestManager(t)
	ctx := context.Background()

	id1, err := m.CreateDocument(ctx, testActor(), billing.DocumentInput{
		Type:  billing.TypeSalesNote,
		Lines: lines1000(),
	})
	require.NoError(t, err)
	id2, err := m.CreateDocument(ctx, testActor(), billing.DocumentInput{
		Type:  billing.TypeSalesNote,
		Lines: lines1000(),
	})
	require.NoError(t, err)

	doc1, err := m.GetDocument(ctx, id1)
	require.NoError(t, err)
	doc2, err := m.GetDocument(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, doc1.PartyID, doc2.PartyID, "walk-in party must be reused, not duplicated")
}

func TestCreateDocument_SupplierPurchaseRequiresParty(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateDocument(context.Background(), testActor(), billing.DocumentInput{
		Type:  billing.TypeSupplierPurchase,
		Lines: lines1000(),
	})
	assert.True(t, ledger.IsValidation(err), "expected validation error, got %v", err)
}

func TestCreateDocument_RejectsBadInput(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")

	cases := []struct {
		name string
		in   billing.DocumentInput
	}{
		{"unknown type", billing.DocumentInput{Type: "invoice", PartyID: partyID, Lines: lines1000()}},
		{"no lines", billing.DocumentInput{Type: billing.TypeSalesNote, PartyID: partyID}},
		{"created cancelled", billing.DocumentInput{Type: billing.TypeSalesNote, PartyID: partyID, Status: billing.StatusCancelled, Lines: lines1000()}},
		{"zero quantity", billing.DocumentInput{Type: billing.TypeSalesNote, PartyID: partyID, Lines: []billing.LineInput{
			{Description: "x", Quantity: decimal.Zero, UnitPrice: ledger.MustMoney("10")},
		}}},
		{"negative price", billing.DocumentInput{Type: billing.TypeSalesNote, PartyID: partyID, Lines: []billing.LineInput{
			{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: ledger.MustMoney("-10")},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.CreateDocument(ctx, testActor(), tc.in)
			assert.True(t, ledger.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateDocument_QuotationGetsFolioButNoEntry(t *testing.T) {
	// Quotations are numbered documents with no accounting effect.
	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")

	id, err := m.CreateDocument(ctx, testActor(), billing.DocumentInput{
		Type:    billing.TypeQuotation,
		PartyID: partyID,
		Lines:   lines1000(),
	})
	require.NoError(t, err)

	doc, err := m.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Folio)

	for _, side := range []ledger.Side{ledger.SideReceivable, ledger.SidePayable} {
		entries, err := store.ActiveEntriesForSource(ctx, doc.Source(), side)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

// =============================================================================
// DOCUMENT UPDATE
// =============================================================================

func TestUpdateDocument_RecomputesTotalAndEntry(t *testing.T) {
	// GIVEN: A 1000.00 sales note
	// WHEN: Replacing its lines with ones worth 1500
	// THEN: Total and the single active ledger entry follow

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	id := createSalesNote(t, m, partyID)

	err := m.UpdateDocument(ctx, testActor(), id, billing.DocumentUpdate{
		Lines: []billing.LineInput{
			{Description: "Palm tree 3m", Quantity: decimal.NewFromInt(5), UnitPrice: ledger.MustMoney("300.00")},
		},
	})
	require.NoError(t, err)

	doc, err := m.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Total.Equal(ledger.MustMoney("1500")))
	assert.Len(t, doc.Lines, 1)

	entries, err := store.ActiveEntriesForSource(ctx, doc.Source(), ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1, "update must replace the entry, never add a second")
	assert.True(t, entries[0].Amount.Equal(ledger.MustMoney("1500")))
}

func TestUpdateDocument_CancelledRejected(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	id := createSalesNote(t, m, partyID)
	require.NoError(t, m.CancelDocument(ctx, testActor(), id))

	err := m.UpdateDocument(ctx, testActor(), id, billing.DocumentUpdate{Lines: lines1000()})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestCreatePayment_ReducesBalance(t *testing.T) {
	// GIVEN: A 1000.00 sales note
	// WHEN: Paying 400
	// THEN: Balance is 600 and the payment posts a -400 receivable entry

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)

	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash,
		Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Paid.Equal(ledger.MustMoney("400")))
	assert.True(t, res.Balance.Equal(ledger.MustMoney("600")))

	src := ledger.SourceRef{Type: ledger.SourcePayment, ID: payID}
	entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(ledger.MustMoney("-400")))
}

func TestCreatePayment_OverBalanceRejected(t *testing.T) {
	// GIVEN: A 1000.00 note already paid 400
	// WHEN: Paying 700 (only 600 remains)
	// THEN: ExceedsBalanceError carrying the remaining amount, and nothing
	//       written - payment count, balance and audit are unchanged

	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	_, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)
	auditBefore, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)

	_, err = m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodTransfer, Amount: ledger.MustMoney("700"),
	})

	var exceeds *ledger.ExceedsBalanceError
	require.ErrorAs(t, err, &exceeds)
	assert.True(t, exceeds.Remaining.Equal(ledger.MustMoney("600")))

	payments, err := m.PaymentsForDocument(ctx, docID, true)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	auditAfter, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, auditAfter, len(auditBefore), "rejected payment must not audit")
}

func TestCreatePayment_ExactRemainingAccepted(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)

	_, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("1000"),
	})
	require.NoError(t, err)

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
}

func TestCreatePayment_QuotationRejected(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	id, err := m.CreateDocument(ctx, testActor(), billing.DocumentInput{
		Type: billing.TypeQuotation, PartyID: partyID, Lines: lines1000(),
	})
	require.NoError(t, err)

	_, err = m.CreatePayment(ctx, testActor(), id, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("100"),
	})
	assert.True(t, ledger.IsValidation(err), "expected validation error, got %v", err)
}

func TestUpdatePayment_CapExcludesItself(t *testing.T) {
	// GIVEN: A single 400 payment on a 1000.00 note
	// WHEN: Raising it to the full total
	// THEN: Legal, because the cap excludes the payment being edited;
	//       raising past the total still fails

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)

	err = m.UpdatePayment(ctx, testActor(), payID, billing.PaymentInput{
		Method: billing.MethodTransfer, Amount: ledger.MustMoney("1000"),
	})
	require.NoError(t, err)

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())

	// The payment's ledger entry was replaced in place.
	src := ledger.SourceRef{Type: ledger.SourcePayment, ID: payID}
	entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(ledger.MustMoney("-1000")))

	err = m.UpdatePayment(ctx, testActor(), payID, billing.PaymentInput{
		Method: billing.MethodTransfer, Amount: ledger.MustMoney("1100"),
	})
	assert.ErrorIs(t, err, ledger.ErrExceedsBalance)
}

func TestSoftDeletePayment_RestoresBalance(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)

	require.NoError(t, m.SoftDeletePayment(ctx, testActor(), payID))

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(ledger.MustMoney("1000")), "deleting the payment restores the full balance")

	src := ledger.SourceRef{Type: ledger.SourcePayment, ID: payID}
	entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	assert.Empty(t, entries, "the payment's ledger entry is soft-deleted with it")

	// Deleting again fails: the payment is no longer active.
	err = m.SoftDeletePayment(ctx, testActor(), payID)
	assert.Error(t, err)
}

// =============================================================================
// CANCELLATION AND REACTIVATION
// =============================================================================

func TestCancelDocument_Cascades(t *testing.T) {
	// GIVEN: A 1000.00 note with a 400 payment
	// WHEN: Cancelling the document
	// THEN: Document cancelled and soft-deleted, payment soft-deleted,
	//       all derived ledger entries inactive

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)

	require.NoError(t, m.CancelDocument(ctx, testActor(), docID))

	doc, err := m.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, doc.Status)
	assert.True(t, doc.Deleted)

	payments, err := m.PaymentsForDocument(ctx, docID, true)
	require.NoError(t, err)
	assert.Empty(t, payments, "no active payments remain")

	all, err := m.PaymentsForDocument(ctx, docID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Deleted)

	for _, src := range []ledger.SourceRef{
		{Type: ledger.SourceDocument, ID: docID},
		{Type: ledger.SourcePayment, ID: payID},
	} {
		entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestCancelDocument_AuditsRemovalNotZero(t *testing.T) {
	// The cancel record's total change must carry a nil after - removed
	// from active accounting is not the same as zero.
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)

	require.NoError(t, m.CancelDocument(ctx, testActor(), docID))

	records, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	cancel := records[1]
	assert.Equal(t, ledger.AuditCancelled, cancel.Action)
	require.Len(t, cancel.Changes, 1)
	assert.Equal(t, "total", cancel.Changes[0].Field)
	require.NotNil(t, cancel.Changes[0].Before)
	assert.True(t, cancel.Changes[0].Before.Decimal.Equal(ledger.MustMoney("1000")))
	assert.Nil(t, cancel.Changes[0].After, "removal must audit as nil, never as zero")
}

func TestReactivateDocument_RestoresDebtNotPayments(t *testing.T) {
	// GIVEN: A cancelled note that had a 400 payment
	// WHEN: Reactivating it
	// THEN: The document and its entry come back; the payment stays
	//       deleted and the full total is owed again

	m, store := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	_, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)
	require.NoError(t, m.CancelDocument(ctx, testActor(), docID))

	require.NoError(t, m.ReactivateDocument(ctx, testActor(), docID))

	doc, err := m.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusConfirmed, doc.Status)
	assert.False(t, doc.Deleted)

	entries, err := store.ActiveEntriesForSource(ctx, doc.Source(), ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	payments, err := m.PaymentsForDocument(ctx, docID, true)
	require.NoError(t, err)
	assert.Empty(t, payments, "payments are never resurrected")

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(ledger.MustMoney("1000")))
}

func TestReactivateDocument_OnlyFromCancelled(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)

	err := m.ReactivateDocument(ctx, testActor(), docID)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
}

// =============================================================================
// SUPPLIER SIDE AND PARTY LEDGER
// =============================================================================

func TestSupplierPurchase_PostsPayable(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	supplierID, err := m.CreateParty(ctx, billing.PartyInput{Name: "Agro SA", Kind: billing.PartySupplier})
	require.NoError(t, err)

	docID, err := m.CreateDocument(ctx, testActor(), billing.DocumentInput{
		Type:    billing.TypeSupplierPurchase,
		PartyID: supplierID,
		Lines:   lines1000(),
	})
	require.NoError(t, err)

	doc, err := m.GetDocument(ctx, docID)
	require.NoError(t, err)
	entries, err := store.ActiveEntriesForSource(ctx, doc.Source(), ledger.SidePayable)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Paying a supplier is an outgoing movement.
	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodTransfer, Amount: ledger.MustMoney("1000"),
	})
	require.NoError(t, err)
	payments, err := m.PaymentsForDocument(ctx, docID, true)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, payID, payments[0].ID)
	assert.Equal(t, billing.DirectionOut, payments[0].Direction)

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
}

func TestPartyLedger_ListsHistoryIncludingDeleted(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)
	require.NoError(t, m.SoftDeletePayment(ctx, testActor(), payID))

	entries, err := m.PartyLedger(ctx, partyID)
	require.NoError(t, err)
	require.Len(t, entries, 2, "statement shows the document entry and the deleted payment entry")

	var foundDeleted bool
	for _, e := range entries {
		if e.Source.Type == ledger.SourcePayment {
			assert.True(t, e.Deleted)
			foundDeleted = true
		}
	}
	assert.True(t, foundDeleted)

	_, err = m.PartyLedger(ctx, "no-such-party")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// REPAIR
// =============================================================================

func TestRepairLedger_HealthyDocumentNoop(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Customer A")
	docID := createSalesNote(t, m, partyID)
	auditBefore, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)

	removed, err := m.RepairLedger(ctx, testActor(), docID)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	auditAfter, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, auditAfter, len(auditBefore), "a clean repair leaves no audit record")
}

// =============================================================================
// FULL LIFECYCLE
// =============================================================================

func TestLifecycle_EndToEnd(t *testing.T) {
	// The canonical walkthrough: sell 1000, collect 400, edit the payment
	// to 700, collect the remaining 300, then cancel everything.
	m, _ := newTestManager(t)
	ctx := context.Background()
	partyID := createCustomer(t, m, "Vivero Juarez")
	docID := createSalesNote(t, m, partyID)

	payID, err := m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("400"),
	})
	require.NoError(t, err)

	res, err := m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(ledger.MustMoney("600")))

	require.NoError(t, m.UpdatePayment(ctx, testActor(), payID, billing.PaymentInput{
		Method: billing.MethodCash, Amount: ledger.MustMoney("700"),
	}))
	res, err = m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(ledger.MustMoney("300")))

	_, err = m.CreatePayment(ctx, testActor(), docID, billing.PaymentInput{
		Method: billing.MethodTransfer, Amount: ledger.MustMoney("300"),
	})
	require.NoError(t, err)
	res, err = m.ComputeBalance(ctx, docID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())

	require.NoError(t, m.CancelDocument(ctx, testActor(), docID))

	records, err := m.AuditForDocument(ctx, docID)
	require.NoError(t, err)
	// created, payment created, payment updated, payment created, cancelled
	require.Len(t, records, 5)
	assert.Equal(t, ledger.AuditCancelled, records[4].Action)
	for _, rec := range records {
		assert.Equal(t, docID, rec.RootID, "all records share the document root")
	}
}
