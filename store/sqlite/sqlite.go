/*
Package sqlite provides the SQLite-backed implementation of the billing
store interfaces.

PURPOSE:
  Implements billing.TxStore - parties, documents, payments, party ledger
  entries, folio sequences and the audit trail - in one place. The same
  patterns apply to PostgreSQL with minor dialect changes.

KEY TABLES:
  parties:          Customers/suppliers, soft-deleted only
  documents:        Billable documents (sales notes, purchases, quotations)
  document_lines:   Child collection, fully replaced on update
  payments:         Monetary movements, soft-deleted only
  party_ledger:     Derived accounting rows, upserted by source key
  folio_sequences:  One counter row per (doc type, year, month)
  audit_log:        Immutable records + audit_changes child rows

CRITICAL INDEXES:
  idx_ledger_active_source: PARTIAL unique index enforcing at most one
    ACTIVE ledger entry per (source_type, source_id, side). The database,
    not application code, is the final arbiter of that invariant.
  folio_sequences primary key: makes the create path of folio issuance
    race-detectable via unique violation.

ATOMIC FOLIO COUNTERS:
  IncrementSequence is a single UPDATE relying on SQLite row-update
  atomicity; CreateSequence surfaces ledger.ErrSequenceExists on a lost
  creation race so ledger.IssueFolio can retry the increment. No table
  locks anywhere.

TRANSACTIONS:
  WithTx executes a function against a Store view bound to one database
  transaction. All lifecycle writes go through it.

WAL MODE:
  The database is opened with WAL and foreign keys on. In-memory
  databases are pinned to a single connection because each SQLite
  connection otherwise gets its own private memory database.

SEE ALSO:
  - billing/store.go: The interfaces implemented here
  - ledger/store.go: Entry, folio and audit contracts
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ChristianRM-dev/Grow-sub001/billing"
	"github.com/ChristianRM-dev/Grow-sub001/ledger"
)

// Store implements billing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dbPath, ":memory:") {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		system_key TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_parties_system_key
		ON parties(system_key) WHERE system_key <> '';

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		doc_type TEXT NOT NULL,
		folio TEXT NOT NULL,
		party_id TEXT NOT NULL REFERENCES parties(id),
		status TEXT NOT NULL,
		total TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		issued_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at TEXT,
		UNIQUE(doc_type, folio)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_party
		ON documents(party_id);
	CREATE INDEX IF NOT EXISTS idx_documents_type_status
		ON documents(doc_type, status);

	CREATE TABLE IF NOT EXISTS document_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id TEXT NOT NULL REFERENCES documents(id),
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		subtotal TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lines_document
		ON document_lines(document_id);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id),
		party_id TEXT NOT NULL REFERENCES parties(id),
		direction TEXT NOT NULL,
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		paid_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payments_document
		ON payments(document_id, is_deleted);

	CREATE TABLE IF NOT EXISTS party_ledger (
		id TEXT PRIMARY KEY,
		party_id TEXT NOT NULL REFERENCES parties(id),
		side TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		occurred_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at TEXT
	);

	-- CRITICAL: at most one ACTIVE entry per (source, side). Soft-deleted
	-- rows stay behind for history and do not participate.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_active_source
		ON party_ledger(source_type, source_id, side) WHERE is_deleted = 0;

	CREATE INDEX IF NOT EXISTS idx_ledger_party
		ON party_ledger(party_id, occurred_at DESC);

	CREATE TABLE IF NOT EXISTS folio_sequences (
		doc_type TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		next INTEGER NOT NULL,
		PRIMARY KEY (doc_type, year, month)
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		event_key TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		root_type TEXT NOT NULL,
		root_id TEXT NOT NULL,
		actor_name TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_root
		ON audit_log(root_type, root_id, occurred_at);

	CREATE TABLE IF NOT EXISTS audit_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL REFERENCES audit_log(id),
		position INTEGER NOT NULL,
		field TEXT NOT NULL,
		kind TEXT NOT NULL,
		before_value TEXT,
		after_value TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_changes_audit
		ON audit_changes(audit_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS (billing.TxStore)
// =============================================================================

// WithTx executes fn within one database transaction. Error return rolls
// back; nil commits.
func (s *Store) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is a Store view bound to one open transaction.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

// =============================================================================
// PARTY STORE
// =============================================================================

func (s *Store) InsertParty(ctx context.Context, p billing.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertParty(ctx, s.db, p)
}

func (ts *txStore) InsertParty(ctx context.Context, p billing.Party) error {
	return ts.parent.insertParty(ctx, ts.tx, p)
}

func (s *Store) insertParty(ctx context.Context, q dbtx, p billing.Party) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO parties (id, name, kind, system_key, created_at, is_deleted, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Kind, p.SystemKey,
		p.CreatedAt.Format(time.RFC3339), boolInt(p.Deleted), nullTime(p.DeletedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("party %s: %w", p.ID, ledger.ErrUniqueViolation)
	}
	return err
}

const partyColumns = `id, name, kind, system_key, created_at, is_deleted, deleted_at`

func (s *Store) GetParty(ctx context.Context, id string) (*billing.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getParty(ctx, s.db, id)
}

func (ts *txStore) GetParty(ctx context.Context, id string) (*billing.Party, error) {
	return ts.parent.getParty(ctx, ts.tx, id)
}

func (s *Store) getParty(ctx context.Context, q dbtx, id string) (*billing.Party, error) {
	row := q.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = ?`, id)
	p, err := scanParty(row)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "party", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) FindPartyBySystemKey(ctx context.Context, key string) (*billing.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPartyBySystemKey(ctx, s.db, key)
}

func (ts *txStore) FindPartyBySystemKey(ctx context.Context, key string) (*billing.Party, error) {
	return ts.parent.findPartyBySystemKey(ctx, ts.tx, key)
}

func (s *Store) findPartyBySystemKey(ctx context.Context, q dbtx, key string) (*billing.Party, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE system_key = ? AND is_deleted = 0`, key)
	p, err := scanParty(row)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "party", ID: key}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListParties(ctx context.Context) ([]billing.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listParties(ctx, s.db)
}

func (ts *txStore) ListParties(ctx context.Context) ([]billing.Party, error) {
	return ts.parent.listParties(ctx, ts.tx)
}

func (s *Store) listParties(ctx context.Context, q dbtx) ([]billing.Party, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE is_deleted = 0 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []billing.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, *p)
	}
	return parties, rows.Err()
}

func scanParty(row interface{ Scan(...any) error }) (*billing.Party, error) {
	var (
		p         billing.Party
		createdAt string
		deleted   int
		deletedAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Kind, &p.SystemKey, &createdAt, &deleted, &deletedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.Deleted = deleted != 0
	p.DeletedAt = parseNullTime(deletedAt)
	return &p, nil
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

const documentColumns = `id, doc_type, folio, party_id, status, total, notes,
	issued_at, created_at, updated_at, is_deleted, deleted_at`

func (s *Store) InsertDocument(ctx context.Context, d billing.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertDocument(ctx, s.db, d)
}

func (ts *txStore) InsertDocument(ctx context.Context, d billing.Document) error {
	return ts.parent.insertDocument(ctx, ts.tx, d)
}

func (s *Store) insertDocument(ctx context.Context, q dbtx, d billing.Document) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Type, d.Folio, d.PartyID, d.Status, d.Total.String(), d.Notes,
		d.IssuedAt.Format(time.RFC3339),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
		boolInt(d.Deleted), nullTime(d.DeletedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s folio %s: %w", d.ID, d.Folio, ledger.ErrUniqueViolation)
	}
	if err != nil {
		return err
	}
	return s.insertLines(ctx, q, d.ID, d.Lines)
}

func (s *Store) insertLines(ctx context.Context, q dbtx, documentID string, lines []billing.Line) error {
	for i, l := range lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO document_lines (document_id, position, description, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			documentID, i, l.Description, l.Quantity.String(), l.UnitPrice.String(), l.Subtotal.String(),
		)
		if err != nil {
			return fmt.Errorf("inserting line %d of document %s: %w", i, documentID, err)
		}
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*billing.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDocument(ctx, s.db, id)
}

func (ts *txStore) GetDocument(ctx context.Context, id string) (*billing.Document, error) {
	return ts.parent.getDocument(ctx, ts.tx, id)
}

func (s *Store) getDocument(ctx context.Context, q dbtx, id string) (*billing.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.loadLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return d, nil
}

func (s *Store) loadLines(ctx context.Context, q dbtx, documentID string) ([]billing.Line, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT description, quantity, unit_price, subtotal
		FROM document_lines WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []billing.Line
	for rows.Next() {
		var l billing.Line
		var qty, unitPrice, subtotal string
		if err := rows.Scan(&l.Description, &qty, &unitPrice, &subtotal); err != nil {
			return nil, err
		}
		l.Quantity, _ = decimal.NewFromString(qty)
		l.UnitPrice = mustMoney(unitPrice)
		l.Subtotal = mustMoney(subtotal)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) UpdateDocument(ctx context.Context, d billing.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateDocument(ctx, s.db, d)
}

func (ts *txStore) UpdateDocument(ctx context.Context, d billing.Document) error {
	return ts.parent.updateDocument(ctx, ts.tx, d)
}

func (s *Store) updateDocument(ctx context.Context, q dbtx, d billing.Document) error {
	res, err := q.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, total = ?, notes = ?, issued_at = ?, updated_at = ?,
		    is_deleted = ?, deleted_at = ?
		WHERE id = ?`,
		d.Status, d.Total.String(), d.Notes,
		d.IssuedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
		boolInt(d.Deleted), nullTime(d.DeletedAt), d.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "document", ID: d.ID}
	}

	// Lines are a child collection: replace, never diff.
	if _, err := q.ExecContext(ctx, `DELETE FROM document_lines WHERE document_id = ?`, d.ID); err != nil {
		return err
	}
	return s.insertLines(ctx, q, d.ID, d.Lines)
}

func (s *Store) ListDocuments(ctx context.Context, f billing.DocumentFilter) ([]billing.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDocuments(ctx, s.db, f)
}

func (ts *txStore) ListDocuments(ctx context.Context, f billing.DocumentFilter) ([]billing.Document, error) {
	return ts.parent.listDocuments(ctx, ts.tx, f)
}

func (s *Store) listDocuments(ctx context.Context, q dbtx, f billing.DocumentFilter) ([]billing.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var conditions []string
	var args []any

	if !f.IncludeDeleted {
		conditions = append(conditions, "is_deleted = 0")
	}
	if f.Type != "" {
		conditions = append(conditions, "doc_type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.PartyID != "" {
		conditions = append(conditions, "party_id = ?")
		args = append(args, f.PartyID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY issued_at DESC, created_at DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []billing.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func scanDocument(row interface{ Scan(...any) error }) (*billing.Document, error) {
	var (
		d                              billing.Document
		total                          string
		issuedAt, createdAt, updatedAt string
		deleted                        int
		deletedAt                      sql.NullString
	)
	err := row.Scan(&d.ID, &d.Type, &d.Folio, &d.PartyID, &d.Status, &total, &d.Notes,
		&issuedAt, &createdAt, &updatedAt, &deleted, &deletedAt)
	if err != nil {
		return nil, err
	}
	d.Total = mustMoney(total)
	d.IssuedAt, _ = time.Parse(time.RFC3339, issuedAt)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	d.Deleted = deleted != 0
	d.DeletedAt = parseNullTime(deletedAt)
	return &d, nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

const paymentColumns = `id, document_id, party_id, direction, method, amount,
	reference, notes, paid_at, created_at, is_deleted, deleted_at`

func (s *Store) InsertPayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPayment(ctx, s.db, p)
}

func (ts *txStore) InsertPayment(ctx context.Context, p billing.Payment) error {
	return ts.parent.insertPayment(ctx, ts.tx, p)
}

func (s *Store) insertPayment(ctx context.Context, q dbtx, p billing.Payment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DocumentID, p.PartyID, p.Direction, p.Method, p.Amount.String(),
		p.Reference, p.Notes,
		p.PaidAt.Format(time.RFC3339), p.CreatedAt.Format(time.RFC3339),
		boolInt(p.Deleted), nullTime(p.DeletedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", p.ID, ledger.ErrUniqueViolation)
	}
	return err
}

func (s *Store) GetPayment(ctx context.Context, id string) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPayment(ctx, s.db, id)
}

func (ts *txStore) GetPayment(ctx context.Context, id string) (*billing.Payment, error) {
	return ts.parent.getPayment(ctx, ts.tx, id)
}

func (s *Store) getPayment(ctx context.Context, q dbtx, id string) (*billing.Payment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "payment", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePayment(ctx, s.db, p)
}

func (ts *txStore) UpdatePayment(ctx context.Context, p billing.Payment) error {
	return ts.parent.updatePayment(ctx, ts.tx, p)
}

func (s *Store) updatePayment(ctx context.Context, q dbtx, p billing.Payment) error {
	res, err := q.ExecContext(ctx, `
		UPDATE payments
		SET method = ?, amount = ?, reference = ?, notes = ?, paid_at = ?,
		    is_deleted = ?, deleted_at = ?
		WHERE id = ?`,
		p.Method, p.Amount.String(), p.Reference, p.Notes,
		p.PaidAt.Format(time.RFC3339),
		boolInt(p.Deleted), nullTime(p.DeletedAt), p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "payment", ID: p.ID}
	}
	return nil
}

func (s *Store) PaymentsForDocument(ctx context.Context, documentID string, activeOnly bool) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentsForDocument(ctx, s.db, documentID, activeOnly)
}

func (ts *txStore) PaymentsForDocument(ctx context.Context, documentID string, activeOnly bool) ([]billing.Payment, error) {
	return ts.parent.paymentsForDocument(ctx, ts.tx, documentID, activeOnly)
}

func (s *Store) paymentsForDocument(ctx context.Context, q dbtx, documentID string, activeOnly bool) ([]billing.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE document_id = ?`
	if activeOnly {
		query += ` AND is_deleted = 0`
	}
	query += ` ORDER BY paid_at ASC, created_at ASC`

	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *Store) SoftDeletePayments(ctx context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.softDeletePayments(ctx, s.db, ids, at)
}

func (ts *txStore) SoftDeletePayments(ctx context.Context, ids []string, at time.Time) error {
	return ts.parent.softDeletePayments(ctx, ts.tx, ids, at)
}

func (s *Store) softDeletePayments(ctx context.Context, q dbtx, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE payments SET is_deleted = 1, deleted_at = ?
		WHERE is_deleted = 0 AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.Format(time.RFC3339))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

func scanPayment(row interface{ Scan(...any) error }) (*billing.Payment, error) {
	var (
		p                 billing.Payment
		amount            string
		paidAt, createdAt string
		deleted           int
		deletedAt         sql.NullString
	)
	err := row.Scan(&p.ID, &p.DocumentID, &p.PartyID, &p.Direction, &p.Method, &amount,
		&p.Reference, &p.Notes, &paidAt, &createdAt, &deleted, &deletedAt)
	if err != nil {
		return nil, err
	}
	p.Amount = mustMoney(amount)
	p.PaidAt, _ = time.Parse(time.RFC3339, paidAt)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.Deleted = deleted != 0
	p.DeletedAt = parseNullTime(deletedAt)
	return &p, nil
}

// =============================================================================
// LEDGER ENTRY STORE (ledger.EntryStore)
// =============================================================================

const entryColumns = `id, party_id, side, source_type, source_id, amount,
	reference, notes, occurred_at, created_at, is_deleted, deleted_at`

func (s *Store) UpsertEntry(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertEntry(ctx, s.db, e)
}

func (ts *txStore) UpsertEntry(ctx context.Context, e ledger.Entry) error {
	return ts.parent.upsertEntry(ctx, ts.tx, e)
}

func (s *Store) upsertEntry(ctx context.Context, q dbtx, e ledger.Entry) error {
	// Conflict target is the partial unique index on active rows: an active
	// entry for the same (source, side) is replaced in place while a
	// soft-deleted one is left behind and a fresh row inserted.
	_, err := q.ExecContext(ctx, `
		INSERT INTO party_ledger (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type, source_id, side) WHERE is_deleted = 0 DO UPDATE SET
			party_id = excluded.party_id,
			amount = excluded.amount,
			reference = excluded.reference,
			notes = excluded.notes,
			occurred_at = excluded.occurred_at`,
		e.ID, e.PartyID, e.Side, e.Source.Type, e.Source.ID, e.Amount.String(),
		e.Reference, e.Notes,
		e.OccurredAt.Format(time.RFC3339), e.CreatedAt.Format(time.RFC3339),
		boolInt(e.Deleted), nullTime(e.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting ledger entry for %s/%s: %w", e.Source.Type, e.Source.ID, err)
	}
	return nil
}

func (s *Store) ActiveEntriesForSource(ctx context.Context, src ledger.SourceRef, side ledger.Side) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEntriesForSource(ctx, s.db, src, side)
}

func (ts *txStore) ActiveEntriesForSource(ctx context.Context, src ledger.SourceRef, side ledger.Side) ([]ledger.Entry, error) {
	return ts.parent.activeEntriesForSource(ctx, ts.tx, src, side)
}

func (s *Store) activeEntriesForSource(ctx context.Context, q dbtx, src ledger.SourceRef, side ledger.Side) ([]ledger.Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM party_ledger
		WHERE source_type = ? AND source_id = ? AND side = ? AND is_deleted = 0
		ORDER BY created_at ASC, rowid ASC`,
		src.Type, src.ID, side)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) EntriesForParty(ctx context.Context, partyID string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesForParty(ctx, s.db, partyID)
}

func (ts *txStore) EntriesForParty(ctx context.Context, partyID string) ([]ledger.Entry, error) {
	return ts.parent.entriesForParty(ctx, ts.tx, partyID)
}

func (s *Store) entriesForParty(ctx context.Context, q dbtx, partyID string) ([]ledger.Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM party_ledger
		WHERE party_id = ?
		ORDER BY occurred_at DESC, created_at DESC`,
		partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) SoftDeleteEntriesForSources(ctx context.Context, srcs []ledger.SourceRef, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.softDeleteEntriesForSources(ctx, s.db, srcs, at)
}

func (ts *txStore) SoftDeleteEntriesForSources(ctx context.Context, srcs []ledger.SourceRef, at time.Time) error {
	return ts.parent.softDeleteEntriesForSources(ctx, ts.tx, srcs, at)
}

func (s *Store) softDeleteEntriesForSources(ctx context.Context, q dbtx, srcs []ledger.SourceRef, at time.Time) error {
	for _, src := range srcs {
		_, err := q.ExecContext(ctx, `
			UPDATE party_ledger SET is_deleted = 1, deleted_at = ?
			WHERE source_type = ? AND source_id = ? AND is_deleted = 0`,
			at.Format(time.RFC3339), src.Type, src.ID)
		if err != nil {
			return fmt.Errorf("soft-deleting entries for %s/%s: %w", src.Type, src.ID, err)
		}
	}
	return nil
}

func (s *Store) SoftDeleteEntryByID(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.softDeleteEntryByID(ctx, s.db, id, at)
}

func (ts *txStore) SoftDeleteEntryByID(ctx context.Context, id string, at time.Time) error {
	return ts.parent.softDeleteEntryByID(ctx, ts.tx, id, at)
}

func (s *Store) softDeleteEntryByID(ctx context.Context, q dbtx, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE party_ledger SET is_deleted = 1, deleted_at = ? WHERE id = ?`,
		at.Format(time.RFC3339), id)
	return err
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for rows.Next() {
		var (
			e                     ledger.Entry
			amount                string
			occurredAt, createdAt string
			deleted               int
			deletedAt             sql.NullString
		)
		err := rows.Scan(&e.ID, &e.PartyID, &e.Side, &e.Source.Type, &e.Source.ID, &amount,
			&e.Reference, &e.Notes, &occurredAt, &createdAt, &deleted, &deletedAt)
		if err != nil {
			return nil, err
		}
		e.Amount = mustMoney(amount)
		e.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.Deleted = deleted != 0
		e.DeletedAt = parseNullTime(deletedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// FOLIO SEQUENCES (ledger.FolioSequences)
// =============================================================================

func (s *Store) IncrementSequence(ctx context.Context, scope ledger.FolioScope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementSequence(ctx, s.db, scope)
}

func (ts *txStore) IncrementSequence(ctx context.Context, scope ledger.FolioScope) (int, error) {
	return ts.parent.incrementSequence(ctx, ts.tx, scope)
}

func (s *Store) incrementSequence(ctx context.Context, q dbtx, scope ledger.FolioScope) (int, error) {
	// Single statement: SQLite's row-update atomicity makes concurrent
	// increments hand out distinct numbers. RETURNING reads the value the
	// caller was issued.
	row := q.QueryRowContext(ctx, `
		UPDATE folio_sequences SET next = next + 1
		WHERE doc_type = ? AND year = ? AND month = ?
		RETURNING next - 1`,
		scope.DocumentType, scope.Year, scope.Month)

	var issued int
	err := row.Scan(&issued)
	if err == sql.ErrNoRows {
		return 0, ledger.ErrSequenceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing folio sequence: %w", err)
	}
	return issued, nil
}

func (s *Store) CreateSequence(ctx context.Context, scope ledger.FolioScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSequence(ctx, s.db, scope)
}

func (ts *txStore) CreateSequence(ctx context.Context, scope ledger.FolioScope) error {
	return ts.parent.createSequence(ctx, ts.tx, scope)
}

func (s *Store) createSequence(ctx context.Context, q dbtx, scope ledger.FolioScope) error {
	// Seeded so the creating caller takes number 1 and the stored next is 2.
	_, err := q.ExecContext(ctx, `
		INSERT INTO folio_sequences (doc_type, year, month, next) VALUES (?, ?, ?, 2)`,
		scope.DocumentType, scope.Year, scope.Month)
	if isUniqueViolation(err) {
		return ledger.ErrSequenceExists
	}
	return err
}

// =============================================================================
// AUDIT STORE (ledger.AuditStore)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendAudit(ctx, s.db, rec)
}

func (ts *txStore) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	return ts.parent.appendAudit(ctx, ts.tx, rec)
}

func (s *Store) appendAudit(ctx context.Context, q dbtx, rec ledger.AuditRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_key, action, entity_type, entity_id,
			root_type, root_id, actor_name, actor_role, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventKey, rec.Action, rec.EntityType, rec.EntityID,
		rec.RootType, rec.RootID, rec.Actor.Name, rec.Actor.Role,
		rec.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}

	for i, c := range rec.Changes {
		_, err := q.ExecContext(ctx, `
			INSERT INTO audit_changes (audit_id, position, field, kind, before_value, after_value)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i, c.Field, changeKind(c), changeValue(c.Before), changeValue(c.After),
		)
		if err != nil {
			return fmt.Errorf("appending audit change %q: %w", c.Field, err)
		}
	}
	return nil
}

func (s *Store) AuditForRoot(ctx context.Context, rootType, rootID string) ([]ledger.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auditForRoot(ctx, s.db, rootType, rootID)
}

func (ts *txStore) AuditForRoot(ctx context.Context, rootType, rootID string) ([]ledger.AuditRecord, error) {
	return ts.parent.auditForRoot(ctx, ts.tx, rootType, rootID)
}

func (s *Store) auditForRoot(ctx context.Context, q dbtx, rootType, rootID string) ([]ledger.AuditRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_key, action, entity_type, entity_id, root_type, root_id,
			actor_name, actor_role, occurred_at
		FROM audit_log
		WHERE root_type = ? AND root_id = ?
		ORDER BY rowid ASC`,
		rootType, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ledger.AuditRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec ledger.AuditRecord
		var occurredAt string
		err := rows.Scan(&rec.ID, &rec.EventKey, &rec.Action, &rec.EntityType, &rec.EntityID,
			&rec.RootType, &rec.RootID, &rec.Actor.Name, &rec.Actor.Role, &occurredAt)
		if err != nil {
			return nil, err
		}
		rec.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	changeRows, err := q.QueryContext(ctx, `
		SELECT c.audit_id, c.field, c.kind, c.before_value, c.after_value
		FROM audit_changes c
		JOIN audit_log a ON a.id = c.audit_id
		WHERE a.root_type = ? AND a.root_id = ?
		ORDER BY c.audit_id, c.position`,
		rootType, rootID)
	if err != nil {
		return nil, err
	}
	defer changeRows.Close()

	for changeRows.Next() {
		var auditID, field, kind string
		var before, after sql.NullString
		if err := changeRows.Scan(&auditID, &field, &kind, &before, &after); err != nil {
			return nil, err
		}
		i, ok := index[auditID]
		if !ok {
			continue
		}
		records[i].Changes = append(records[i].Changes, ledger.Change{
			Field:  field,
			Before: parseChangeValue(ledger.ChangeKind(kind), before),
			After:  parseChangeValue(ledger.ChangeKind(kind), after),
		})
	}
	return records, changeRows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func mustMoney(s string) ledger.Money {
	m, err := ledger.ParseMoney(s)
	if err != nil {
		return ledger.Zero()
	}
	return m
}

func changeKind(c ledger.Change) string {
	if c.Before != nil {
		return string(c.Before.Kind)
	}
	if c.After != nil {
		return string(c.After.Kind)
	}
	return string(ledger.ChangeText)
}

func changeValue(v *ledger.ChangeValue) sql.NullString {
	if v == nil {
		// NULL means absent/removed, which is distinct from "0".
		return sql.NullString{}
	}
	return sql.NullString{String: v.Render(), Valid: true}
}

func parseChangeValue(kind ledger.ChangeKind, s sql.NullString) *ledger.ChangeValue {
	if !s.Valid {
		return nil
	}
	switch kind {
	case ledger.ChangeDecimal:
		return ledger.DecimalValue(mustMoney(s.String))
	case ledger.ChangeJSON:
		return ledger.JSONValue([]byte(s.String))
	default:
		return ledger.TextValue(s.String)
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
