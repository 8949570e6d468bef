package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

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

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var testTime = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)

func insertTestParty(t *testing.T, store *sqlite.Store, id string) {
	require.NoError(t, store.InsertParty(context.Background(), billing.Party{
		ID:        id,
		Name:      "Party " + id,
		Kind:      billing.PartyCustomer,
		CreatedAt: testTime,
	}))
}

func testEntry(id, partyID, sourceID, amount string) ledger.Entry {
	return ledger.Entry{
		ID:         id,
		PartyID:    partyID,
		Side:       ledger.SideReceivable,
		Source:     ledger.SourceRef{Type: ledger.SourceDocument, ID: sourceID},
		Amount:     ledger.MustMoney(amount),
		OccurredAt: testTime,
		CreatedAt:  testTime,
	}
}

// =============================================================================
// LEDGER ENTRY UPSERTS
// =============================================================================

func TestUpsertEntry_ReplacesActiveRow(t *testing.T) {
	// GIVEN: An active entry for a (source, side) key
	// WHEN: Upserting the same key with a new amount
	// THEN: Still exactly one active row, carrying the new amount

	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")

	require.NoError(t, store.UpsertEntry(ctx, testEntry("e-1", "party-1", "doc-1", "1000")))
	require.NoError(t, store.UpsertEntry(ctx, testEntry("e-2", "party-1", "doc-1", "1500")))

	src := ledger.SourceRef{Type: ledger.SourceDocument, ID: "doc-1"}
	entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the partial unique index admits one active row")
	assert.True(t, entries[0].Amount.Equal(ledger.MustMoney("1500")))
	assert.Equal(t, "e-1", entries[0].ID, "conflict resolution updates in place, keeping the original row id")
}

func TestUpsertEntry_AfterSoftDeleteInsertsFresh(t *testing.T) {
	// A soft-deleted row leaves the partial index, so the next upsert for
	// the same key is a fresh insert and history keeps both rows.
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")
	src := ledger.SourceRef{Type: ledger.SourceDocument, ID: "doc-1"}

	require.NoError(t, store.UpsertEntry(ctx, testEntry("e-1", "party-1", "doc-1", "1000")))
	require.NoError(t, store.SoftDeleteEntriesForSources(ctx, []ledger.SourceRef{src}, testTime))
	require.NoError(t, store.UpsertEntry(ctx, testEntry("e-2", "party-1", "doc-1", "1000")))

	active, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "e-2", active[0].ID)

	all, err := store.EntriesForParty(ctx, "party-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertEntry_SidesAreIndependentKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")

	receivable := testEntry("e-1", "party-1", "doc-1", "100")
	payable := testEntry("e-2", "party-1", "doc-1", "100")
	payable.Side = ledger.SidePayable

	require.NoError(t, store.UpsertEntry(ctx, receivable))
	require.NoError(t, store.UpsertEntry(ctx, payable))

	src := ledger.SourceRef{Type: ledger.SourceDocument, ID: "doc-1"}
	r, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	p, err := store.ActiveEntriesForSource(ctx, src, ledger.SidePayable)
	require.NoError(t, err)
	assert.Len(t, r, 1)
	assert.Len(t, p, 1)
}

func TestUpsertEntry_ConcurrentSameKey(t *testing.T) {
	// Twenty concurrent upserts against one key must end with exactly one
	// active row. The database index, not application logic, guarantees it.
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := testEntry(fmt.Sprintf("e-%d", i), "party-1", "doc-1", fmt.Sprintf("%d", 100+i))
			assert.NoError(t, store.UpsertEntry(ctx, e))
		}(i)
	}
	wg.Wait()

	src := ledger.SourceRef{Type: ledger.SourceDocument, ID: "doc-1"}
	entries, err := store.ActiveEntriesForSource(ctx, src, ledger.SideReceivable)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// FOLIO SEQUENCES
// =============================================================================

func TestFolioSequence_IncrementMissingScope(t *testing.T) {
	store := newTestStore(t)
	scope := ledger.FolioScope{DocumentType: "sales_note", Year: 2025, Month: 6}

	_, err := store.IncrementSequence(context.Background(), scope)
	assert.ErrorIs(t, err, ledger.ErrSequenceNotFound)
}

func TestFolioSequence_CreateThenIncrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := ledger.FolioScope{DocumentType: "sales_note", Year: 2025, Month: 6}

	require.NoError(t, store.CreateSequence(ctx, scope))

	// The creator took number 1; the next increment issues 2.
	n, err := store.IncrementSequence(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Creating again reports the race.
	assert.ErrorIs(t, store.CreateSequence(ctx, scope), ledger.ErrSequenceExists)
}

func TestIssueFolio_ConcurrentIssuanceIsGapFree(t *testing.T) {
	// GIVEN: 50 concurrent callers issuing folios for one scope
	// THEN: Numbers are exactly 1..50, no duplicates, no gaps

	store := newTestStore(t)
	ctx := context.Background()
	const callers = 50

	var wg sync.WaitGroup
	results := make(chan int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, n, err := ledger.IssueFolio(ctx, store, "sales_note", testTime)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for n := range results {
		assert.False(t, seen[n], "number %d issued twice", n)
		seen[n] = true
	}
	for i := 1; i <= callers; i++ {
		assert.True(t, seen[i], "number %d never issued", i)
	}
}

// =============================================================================
// PARTIES
// =============================================================================

func TestParty_SystemKeyUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	walkIn := billing.Party{
		ID: "p-1", Name: "Walk-in customer", Kind: billing.PartyCustomer,
		SystemKey: billing.WalkInCustomerKey, CreatedAt: testTime,
	}
	require.NoError(t, store.InsertParty(ctx, walkIn))

	dup := walkIn
	dup.ID = "p-2"
	err := store.InsertParty(ctx, dup)
	assert.ErrorIs(t, err, ledger.ErrUniqueViolation)

	// Regular parties carry no system key and do not collide.
	require.NoError(t, store.InsertParty(ctx, billing.Party{
		ID: "p-3", Name: "A", Kind: billing.PartyCustomer, CreatedAt: testTime,
	}))
	require.NoError(t, store.InsertParty(ctx, billing.Party{
		ID: "p-4", Name: "B", Kind: billing.PartyCustomer, CreatedAt: testTime,
	}))
}

func TestParty_FindBySystemKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.FindPartyBySystemKey(ctx, billing.WalkInCustomerKey)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, store.InsertParty(ctx, billing.Party{
		ID: "p-1", Name: "Walk-in customer", Kind: billing.PartyCustomer,
		SystemKey: billing.WalkInCustomerKey, CreatedAt: testTime,
	}))

	p, err := store.FindPartyBySystemKey(ctx, billing.WalkInCustomerKey)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func testDocument(id, partyID string) billing.Document {
	return billing.Document{
		ID:      id,
		Type:    billing.TypeSalesNote,
		Folio:   "2025-06-" + id,
		PartyID: partyID,
		Status:  billing.StatusConfirmed,
		Total:   ledger.MustMoney("1000"),
		Lines: []billing.Line{
			{Description: "Palm tree", Quantity: decimal.NewFromInt(4), UnitPrice: ledger.MustMoney("250"), Subtotal: ledger.MustMoney("1000")},
		},
		IssuedAt:  testTime,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func TestDocument_RoundTripWithLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")

	require.NoError(t, store.InsertDocument(ctx, testDocument("d-1", "party-1")))

	got, err := store.GetDocument(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(ledger.MustMoney("1000")))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Palm tree", got.Lines[0].Description)
	assert.True(t, got.Lines[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, got.Lines[0].Subtotal.Equal(ledger.MustMoney("1000")))
}

func TestDocument_UpdateReplacesLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")
	doc := testDocument("d-1", "party-1")
	require.NoError(t, store.InsertDocument(ctx, doc))

	doc.Total = ledger.MustMoney("300")
	doc.Lines = []billing.Line{
		{Description: "Seedlings", Quantity: decimal.NewFromInt(30), UnitPrice: ledger.MustMoney("10"), Subtotal: ledger.MustMoney("300")},
	}
	require.NoError(t, store.UpdateDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1, "old lines must be gone, not appended to")
	assert.Equal(t, "Seedlings", got.Lines[0].Description)
}

func TestDocument_FolioUniquePerType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")

	d1 := testDocument("d-1", "party-1")
	d1.Folio = "2025-06-01"
	require.NoError(t, store.InsertDocument(ctx, d1))

	d2 := testDocument("d-2", "party-1")
	d2.Folio = "2025-06-01"
	assert.ErrorIs(t, store.InsertDocument(ctx, d2), ledger.ErrUniqueViolation)

	// The same folio under a different document type is fine.
	d3 := testDocument("d-3", "party-1")
	d3.Folio = "2025-06-01"
	d3.Type = billing.TypeQuotation
	assert.NoError(t, store.InsertDocument(ctx, d3))
}

func TestDocument_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertTestParty(t, store, "party-1")
	insertTestParty(t, store, "party-2")

	d1 := testDocument("d-1", "party-1")
	d2 := testDocument("d-2", "party-2")
	d3 := testDocument("d-3", "party-1")
	d3.Type = billing.TypeQuotation
	d4 := testDocument("d-4", "party-1")
	d4.Deleted = true
	d4.DeletedAt = &testTime
	for _, d := range []billing.Document{d1, d2, d3, d4} {
		require.NoError(t, store.InsertDocument(ctx, d))
	}

	byType, err := store.ListDocuments(ctx, billing.DocumentFilter{Type: billing.TypeSalesNote})
	require.NoError(t, err)
	assert.Len(t, byType, 2, "deleted d-4 excluded by default")

	byParty, err := store.ListDocuments(ctx, billing.DocumentFilter{PartyID: "party-2"})
	require.NoError(t, err)
	require.Len(t, byParty, 1)
	assert.Equal(t, "d-2", byParty[0].ID)

	withDeleted, err := store.ListDocuments(ctx, billing.DocumentFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 4)
}

func TestDocument_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes a party and then fails
	// THEN: The write is rolled back entirely

	store := newTestStore(t)
	ctx := context.Background()

	sentinel := fmt.Errorf("boom")
	err := store.WithTx(ctx, func(s billing.Store) error {
		if err := s.InsertParty(ctx, billing.Party{
			ID: "p-1", Name: "Ghost", Kind: billing.PartyCustomer, CreatedAt: testTime,
		}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = store.GetParty(ctx, "p-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestWithTx_CommitsOnNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s billing.Store) error {
		return s.InsertParty(ctx, billing.Party{
			ID: "p-1", Name: "Kept", Kind: billing.PartyCustomer, CreatedAt: testTime,
		})
	})
	require.NoError(t, err)

	p, err := store.GetParty(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Kept", p.Name)
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestAudit_RoundTripPreservesNilAfter(t *testing.T) {
	// The nil-after convention must survive storage: removed is NULL in
	// the database and nil on the way out, never zero.
	store := newTestStore(t)
	ctx := context.Background()

	rec := ledger.AuditRecord{
		ID:         "a-1",
		EventKey:   "sales_note.cancelled",
		Action:     ledger.AuditCancelled,
		EntityType: "document",
		EntityID:   "d-1",
		RootType:   "sales_note",
		RootID:     "d-1",
		Actor:      ledger.Actor{Name: "Maria", Role: "admin"},
		OccurredAt: testTime,
		Changes: []ledger.Change{
			{Field: "total", Before: ledger.DecimalValue(ledger.MustMoney("1000")), After: nil},
			{Field: "folio", Before: nil, After: ledger.TextValue("2025-06-01")},
		},
	}
	require.NoError(t, store.AppendAudit(ctx, rec))

	records, err := store.AuditForRoot(ctx, "sales_note", "d-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, ledger.AuditCancelled, got.Action)
	assert.Equal(t, "Maria", got.Actor.Name)
	require.Len(t, got.Changes, 2)

	total := got.Changes[0]
	require.NotNil(t, total.Before)
	assert.Equal(t, ledger.ChangeDecimal, total.Before.Kind)
	assert.True(t, total.Before.Decimal.Equal(ledger.MustMoney("1000")))
	assert.Nil(t, total.After)

	folio := got.Changes[1]
	assert.Nil(t, folio.Before)
	require.NotNil(t, folio.After)
	assert.Equal(t, "2025-06-01", folio.After.Text)
}

func TestAudit_RecordsOrderedByInsertion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, action := range []ledger.AuditAction{ledger.AuditCreated, ledger.AuditUpdated, ledger.AuditCancelled} {
		require.NoError(t, store.AppendAudit(ctx, ledger.AuditRecord{
			ID:         fmt.Sprintf("a-%d", i),
			EventKey:   "sales_note." + string(action),
			Action:     action,
			EntityType: "document",
			EntityID:   "d-1",
			RootType:   "sales_note",
			RootID:     "d-1",
			Actor:      ledger.Actor{Name: "Maria"},
			OccurredAt: testTime, // identical timestamps on purpose
		}))
	}

	records, err := store.AuditForRoot(ctx, "sales_note", "d-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ledger.AuditCreated, records[0].Action)
	assert.Equal(t, ledger.AuditUpdated, records[1].Action)
	assert.Equal(t, ledger.AuditCancelled, records[2].Action)
}
