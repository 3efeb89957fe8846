// Package ledger turns a filtered set of journal entries into a canonically
// ordered, balance-annotated sequence.
package ledger

import (
	"slices"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Compare orders entries canonically: date ascending, then voucher number
// (empty first), then entry id, then account id. The account id only breaks
// ties between legs of the same entry id listed under different accounts.
func Compare(a, b model.JournalEntry) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if a.VoucherNo != b.VoucherNo {
		if a.VoucherNo < b.VoucherNo {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	switch {
	case a.AccountID < b.AccountID:
		return -1
	case a.AccountID > b.AccountID:
		return 1
	}
	return 0
}

// Less reports whether a sorts before b in canonical order.
func Less(a, b model.JournalEntry) bool {
	return Compare(a, b) < 0
}

// Canonicalize returns a canonically sorted copy of entries.
func Canonicalize(entries []model.JournalEntry) []model.JournalEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, Compare)
	return out
}

// DisplayOrder returns a newest-first copy of annotated entries. Balances
// are carried over untouched.
func DisplayOrder(rows []model.AnnotatedEntry) []model.AnnotatedEntry {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b model.AnnotatedEntry) int {
		return Compare(b.JournalEntry, a.JournalEntry)
	})
	return out
}

// CanonicalOrder returns an oldest-first copy of annotated entries without
// recomputing balances.
func CanonicalOrder(rows []model.AnnotatedEntry) []model.AnnotatedEntry {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b model.AnnotatedEntry) int {
		return Compare(a.JournalEntry, b.JournalEntry)
	})
	return out
}
