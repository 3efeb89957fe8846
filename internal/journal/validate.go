package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Rules checked by ValidateEntries.
const (
	RuleBalanced      = "balanced"
	RuleOneSide       = "one-side"
	RuleKnownAccount  = "known-account"
	RuleNonNegative   = "non-negative"
	RuleTwoDecimals   = "two-decimals"
	RuleUniqueEntryID = "unique-id"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        string
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id string) bool
}

// ValidateEntries checks a batch of legs before they are written. Vouchers
// are grouped by voucher number; legs without one are checked alone.
// posted holds the ids already in the ledger; it may be nil.
func ValidateEntries(entries []model.JournalEntry, accounts AccountChecker, posted map[string]bool) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]model.JournalEntry)
	var groupOrder []string
	seen := make(map[string]bool)
	for _, e := range entries {
		switch {
		case posted[e.ID]:
			errs = append(errs, ValidationError{
				Rule:        RuleUniqueEntryID,
				EntryID:     e.ID,
				Description: "entry id already posted",
			})
		case seen[e.ID]:
			errs = append(errs, ValidationError{
				Rule:        RuleUniqueEntryID,
				EntryID:     e.ID,
				Description: "duplicate entry id",
			})
		}
		seen[e.ID] = true

		g := e.VoucherNo
		if g == "" {
			g = "entry:" + e.ID
		}
		if _, ok := groups[g]; !ok {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], e)
	}

	for _, g := range groupOrder {
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero
		for _, e := range groups[g] {
			totalDebit = totalDebit.Add(e.Debit)
			totalCredit = totalCredit.Add(e.Credit)
		}
		if !totalDebit.Equal(totalCredit) {
			errs = append(errs, ValidationError{
				Rule:        RuleBalanced,
				EntryID:     g,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
			})
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, e := range entries {
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			errs = append(errs, ValidationError{
				Rule:        RuleNonNegative,
				EntryID:     e.ID,
				Description: "debit and credit must be >= 0",
			})
		}

		if e.Debit.IsZero() == e.Credit.IsZero() {
			errs = append(errs, ValidationError{
				Rule:        RuleOneSide,
				EntryID:     e.ID,
				Description: "leg must have exactly one of debit or credit",
			})
		}

		if accounts != nil && !accounts.Exists(e.AccountID) {
			errs = append(errs, ValidationError{
				Rule:        RuleKnownAccount,
				EntryID:     e.ID,
				Description: fmt.Sprintf("unknown account %q", e.AccountID),
			})
		}

		for _, amt := range []decimal.Decimal{e.Debit, e.Credit} {
			if !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()) {
				errs = append(errs, ValidationError{
					Rule:        RuleTwoDecimals,
					EntryID:     e.ID,
					Description: fmt.Sprintf("amount %s has more than 2 decimal places", amt),
				})
			}
		}
	}

	return errs
}
