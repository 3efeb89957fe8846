package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the wire and file format for posting dates.
const DateFormat = "2006-01-02"

// JournalEntry is one leg of a posted, immutable voucher.
type JournalEntry struct {
	ID          string
	Date        time.Time
	Description string
	Reference   string
	VoucherNo   string
	VoucherType string
	AccountID   string
	AccountCode string
	AccountName string
	Debit       decimal.Decimal // zero if credit side
	Credit      decimal.Decimal // zero if debit side
}

// Net returns debit minus credit.
func (e JournalEntry) Net() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// AnnotatedEntry is a journal entry with its computed running balance.
// Derived only; never persisted.
type AnnotatedEntry struct {
	JournalEntry
	RunningBalance decimal.Decimal
	RowKey         string
}

// Side is the column an adjustment line is posted on.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Valid reports whether s is debit or credit.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// OpeningBalance is the net debit-minus-credit balance of an account
// immediately before a fiscal year begins.
type OpeningBalance struct {
	AccountID          string
	FiscalYear         int
	Amount             decimal.Decimal // signed
	IncludeDescendants bool
}

// AdjustmentLine is a single line of an opening-balance voucher.
type AdjustmentLine struct {
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Signed returns the line as a debit-minus-credit amount.
func (l AdjustmentLine) Signed() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// OpeningBalanceVoucher sets an account's opening balance for a fiscal year.
// It carries exactly one line dated at the fiscal-year start.
type OpeningBalanceVoucher struct {
	Date       time.Time
	FiscalYear int
	BranchNo   string
	Line       AdjustmentLine
}
