/*
cascade.go - Soft-delete cascade planning

PURPOSE:
  Cancelling a document soft-deletes the document itself, all of its
  still-active payments, and every ledger entry whose source is the
  document OR one of those payments. That graph walk is computed here as
  an explicit plan BEFORE any write happens, so the affected set is
  inspectable and testable in isolation, and the store applies it in one
  pass inside the operation's transaction.

SCOPE:
  Only ACTIVE payments join the cascade. Payments that were already
  soft-deleted keep their existing deletion timestamps; their ledger
  entries were flagged when they were deleted.
*/
package billing

import "github.com/ChristianRM-dev/Grow-sub001/ledger"

// CascadePlan is the full set of rows a document cancellation touches.
type CascadePlan struct {
	DocumentID string
	PaymentIDs []string           // active payments to soft-delete
	Sources    []ledger.SourceRef // ledger sources whose entries go with them
}

// PlanCancelCascade computes the cascade for cancelling doc. payments should
// be the document's full payment list; deleted ones are skipped here.
func PlanCancelCascade(doc *Document, payments []Payment) CascadePlan {
	plan := CascadePlan{
		DocumentID: doc.ID,
		Sources:    []ledger.SourceRef{doc.Source()},
	}

	for i := range payments {
		p := &payments[i]
		if p.Deleted || p.DocumentID != doc.ID {
			continue
		}
		plan.PaymentIDs = append(plan.PaymentIDs, p.ID)
		plan.Sources = append(plan.Sources, p.Source())
	}

	return plan
}
