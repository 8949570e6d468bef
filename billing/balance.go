/*
balance.go - Outstanding balance reconciliation

PURPOSE:
  Answers "how much is still owed on this document?". Always a fresh
  aggregation over the document's active payments - there is NO stored
  running balance anywhere in the system. Soft-deleting or editing a
  payment is reflected immediately, with no separate reconciliation pass.

FORMULA:
  paid    = sum of active payments whose direction settles the document
            (sales notes <- incoming, supplier purchases <- outgoing)
  balance = max(total - paid, 0)

FLOOR AT ZERO:
  If inconsistent data ever makes paid > total (legacy imports), balance
  floors at zero rather than going negative. Callers that need to detect
  overpayment must compare Paid and Total directly.

EXCLUSION:
  Reconcile takes an excludePaymentID so payment updates can ask "what
  would the balance be without the payment being edited?" - that result
  is the maximum amount the edit may submit.
*/
package billing

import "github.com/ChristianRM-dev/Grow-sub001/ledger"

// Reconcile computes the outstanding balance of a document with the given
// authoritative total, from its payments. Payments that are soft-deleted,
// flow in the wrong direction, or match excludePaymentID are ignored.
// Pass excludePaymentID "" for a plain balance.
func Reconcile(total ledger.Money, settles Direction, payments []Payment, excludePaymentID string) BalanceResult {
	paid := ledger.Zero()
	for _, p := range payments {
		if p.Deleted || p.Direction != settles {
			continue
		}
		if excludePaymentID != "" && p.ID == excludePaymentID {
			continue
		}
		paid = paid.Add(p.Amount)
	}

	return BalanceResult{
		Total:   total,
		Paid:    paid,
		Balance: total.Sub(paid).FloorZero(),
	}
}
