/*
folio.go - Gapless human-readable document numbering

PURPOSE:
  Issues folio strings like "2025-06-07": monotonically increasing,
  unique within a (document type, year, month) scope. The counter lives
  in a database row, never in process memory, so concurrent requests and
  restarts cannot double-issue.

THE THREE-STEP DANCE:
  1. Try to atomically increment the scope's counter row.
  2. If no row exists (first folio of the month), try to create it
     seeded so this caller gets number 1.
  3. If the create loses a race with a concurrent first-caller
     (unique-constraint conflict), fall back to the increment path once.

  This avoids ever taking a table-level lock while staying race-safe
  under concurrent first-of-month issuance.

ACCEPTED TRADEOFF:
  Folios are issued inside the caller's transaction. If that transaction
  rolls back after incrementing, the counter keeps the bumped value and
  the number is simply skipped. Numbers are unique and increasing, NOT
  necessarily contiguous. This is deliberate: reusing numbers after a
  rollback would require locking the counter across transactions.

SEE ALSO:
  - store.go: FolioSequences interface
  - store/sqlite/sqlite.go: Atomic increment / conflict detection
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// IssueFolio allocates the next folio number for a document type at asOf and
// returns both the formatted string ("YYYY-MM-NN") and the raw sequence
// number. Must be called inside the transaction that writes the document.
func IssueFolio(ctx context.Context, seqs FolioSequences, docType string, asOf time.Time) (string, int, error) {
	scope := FolioScope{
		DocumentType: docType,
		Year:         asOf.Year(),
		Month:        int(asOf.Month()),
	}

	n, err := seqs.IncrementSequence(ctx, scope)
	if errors.Is(err, ErrSequenceNotFound) {
		// First folio of the month for this type. Seed the counter.
		createErr := seqs.CreateSequence(ctx, scope)
		switch {
		case createErr == nil:
			n, err = 1, nil
		case errors.Is(createErr, ErrSequenceExists):
			// Lost the race to another first-caller; their row is there now.
			n, err = seqs.IncrementSequence(ctx, scope)
		default:
			return "", 0, fmt.Errorf("creating folio sequence %+v: %w", scope, createErr)
		}
	}
	if err != nil {
		return "", 0, fmt.Errorf("issuing folio for %+v: %w", scope, err)
	}

	return FormatFolio(scope, n), n, nil
}

// FormatFolio renders "YYYY-MM-NN" with the sequence zero-padded to at least
// two digits. Wider numbers keep all their digits ("2025-06-143").
func FormatFolio(scope FolioScope, n int) string {
	return fmt.Sprintf("%04d-%02d-%02d", scope.Year, scope.Month, n)
}
