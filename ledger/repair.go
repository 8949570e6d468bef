/*
repair.go - Self-healing for the single-active-entry invariant

PURPOSE:
  Steady-state writes can never create duplicate ledger entries for one
  (source, side) key - the partial unique index forbids it. But legacy
  imports or historical bugs may have left duplicates behind, and an
  upsert against such a key would hit rows the index no longer guards
  consistently. EnsureSingleEntryForSource collapses them defensively:
  keep the oldest row, soft-delete the rest.

  This is a repair path, NOT part of normal writes. It is logged at warn
  and never treated as fatal.
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// EnsureSingleEntryForSource collapses duplicate active entries for one
// (source, side) key, keeping the oldest. Returns the surviving entry (nil
// if no active entry exists) and how many duplicates were soft-deleted.
func EnsureSingleEntryForSource(ctx context.Context, store EntryStore, log zerolog.Logger, src SourceRef, side Side, at time.Time) (*Entry, int, error) {
	entries, err := store.ActiveEntriesForSource(ctx, src, side)
	if err != nil {
		return nil, 0, fmt.Errorf("loading entries for %s/%s: %w", src.Type, src.ID, err)
	}
	if len(entries) == 0 {
		return nil, 0, nil
	}

	// Oldest first is the store's contract; the survivor is entries[0].
	survivor := entries[0]
	for _, dup := range entries[1:] {
		if err := store.SoftDeleteEntryByID(ctx, dup.ID, at); err != nil {
			return nil, 0, fmt.Errorf("collapsing duplicate entry %s: %w", dup.ID, err)
		}
		log.Warn().
			Str("source_type", string(src.Type)).
			Str("source_id", src.ID).
			Str("side", string(side)).
			Str("kept", survivor.ID).
			Str("removed", dup.ID).
			Msg("collapsed duplicate ledger entry")
	}

	return &survivor, len(entries) - 1, nil
}
