package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/id"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Calculate annotates entries with running balances.
//
// entries must be the complete filtered set, not a page of it: a single
// account's balance at row i is opening plus every movement up to i, so a
// paginated input anchors later pages at the wrong value.
//
// For a single account one running total starts at opening. For all
// accounts each account id keeps its own total starting at zero and opening
// is ignored, since an aggregate has no opening balance.
func Calculate(entries []model.JournalEntry, scope model.Scope, opening decimal.Decimal) []model.AnnotatedEntry {
	sorted := Canonicalize(entries)
	out := make([]model.AnnotatedEntry, len(sorted))

	if scope.IsAll() {
		buckets := make(map[string]decimal.Decimal)
		for i, e := range sorted {
			running := buckets[e.AccountID].Add(e.Net())
			buckets[e.AccountID] = running
			out[i] = model.AnnotatedEntry{
				JournalEntry:   e,
				RunningBalance: running,
				RowKey:         id.GroupedRowKey(e.ID, e.AccountID, i),
			}
		}
		return out
	}

	running := opening
	for i, e := range sorted {
		running = running.Add(e.Net())
		out[i] = model.AnnotatedEntry{
			JournalEntry:   e,
			RunningBalance: running,
			RowKey:         id.RowKey(e.ID, i),
		}
	}
	return out
}

// EffectiveOpening returns the opening balance the calculator anchors to:
// opening for a single account, zero for all accounts.
func EffectiveOpening(scope model.Scope, opening decimal.Decimal) decimal.Decimal {
	if scope.IsAll() {
		return decimal.Zero
	}
	return opening
}

// Closing returns the balance after the last canonical row of a
// single-account ledger, or the effective opening when there are no rows.
// For all accounts it returns the sum of every account's final balance.
func Closing(rows []model.AnnotatedEntry, scope model.Scope, opening decimal.Decimal) decimal.Decimal {
	if scope.IsAll() {
		last := make(map[string]decimal.Decimal)
		for _, r := range rows {
			last[r.AccountID] = r.RunningBalance
		}
		total := decimal.Zero
		for _, v := range last {
			total = total.Add(v)
		}
		return total
	}
	if len(rows) == 0 {
		return opening
	}
	return CanonicalOrder(rows)[len(rows)-1].RunningBalance
}

// Totals sums debit and credit columns.
func Totals(rows []model.AnnotatedEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, r := range rows {
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	return debit, credit
}
