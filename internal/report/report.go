// Package report projects balance-annotated entries into the paginated
// on-screen view and the full printable document.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/id"
	"github.com/cleared-dev/ledgerview/internal/ledger"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// DefaultPageSize is used when a window has no page size.
const DefaultPageSize = 25

// OpeningDescription labels the synthetic opening row.
const OpeningDescription = "Opening balance"

// Window selects one display page. Page 1 holds the newest rows.
type Window struct {
	Page     int
	PageSize int
}

func (w Window) normalize() Window {
	if w.Page < 1 {
		w.Page = 1
	}
	if w.PageSize < 1 {
		w.PageSize = DefaultPageSize
	}
	return w
}

// Totals sums the debit and credit columns of a set of rows.
type Totals struct {
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Difference decimal.Decimal `json:"difference"`
}

// TotalsOf sums rows. Running balances are not consulted.
func TotalsOf(rows []model.AnnotatedEntry) Totals {
	debit, credit := ledger.Totals(rows)
	return Totals{Debit: debit, Credit: credit, Difference: debit.Sub(credit)}
}

// Page is one window of the on-screen ledger.
type Page struct {
	Rows       []model.AnnotatedEntry
	Totals     Totals
	Page       int
	PageSize   int
	TotalRows  int
	TotalPages int
}

// PageView slices annotated entries, newest first, to the window. Totals
// cover only the rows on the page. Balances are never recomputed here.
func PageView(annotated []model.AnnotatedEntry, w Window) Page {
	w = w.normalize()
	display := ledger.DisplayOrder(annotated)

	p := Page{
		Page:       w.Page,
		PageSize:   w.PageSize,
		TotalRows:  len(display),
		TotalPages: (len(display) + w.PageSize - 1) / w.PageSize,
		Rows:       []model.AnnotatedEntry{},
	}
	start := (w.Page - 1) * w.PageSize
	if start < len(display) {
		end := min(start+w.PageSize, len(display))
		p.Rows = display[start:end]
	}
	p.Totals = TotalsOf(p.Rows)
	return p
}

// Header is the document heading repeated on every printed page.
type Header struct {
	Title        string
	AccountLabel string
	RangeLabel   string
	GeneratedAt  time.Time
}

// PrintDocument is the full canonical reconstruction of a ledger view.
type PrintDocument struct {
	Header  Header
	Opening model.AnnotatedEntry
	Rows    []model.AnnotatedEntry
	Totals  Totals
	Closing decimal.Decimal
}

// PrintView rebuilds the whole ledger oldest first: an opening row carrying
// opening as its balance, every annotated entry, then grand totals over the
// entire set. opening must be the balance the rows were anchored to, zero
// for all accounts.
func PrintView(annotated []model.AnnotatedEntry, opening decimal.Decimal, h Header) PrintDocument {
	rows := ledger.CanonicalOrder(annotated)
	totals := TotalsOf(rows)

	var date time.Time
	if len(rows) > 0 {
		date = rows[0].Date
	}
	return PrintDocument{
		Header: h,
		Opening: model.AnnotatedEntry{
			JournalEntry: model.JournalEntry{
				ID:          id.OpeningRowKey,
				Date:        date,
				Description: OpeningDescription,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
			},
			RunningBalance: opening,
			RowKey:         id.OpeningRowKey,
		},
		Rows:    rows,
		Totals:  totals,
		Closing: opening.Add(totals.Difference),
	}
}

// Lines returns every printed row in order: the opening row followed by the
// canonical entries.
func (d PrintDocument) Lines() []model.AnnotatedEntry {
	out := make([]model.AnnotatedEntry, 0, len(d.Rows)+1)
	out = append(out, d.Opening)
	return append(out, d.Rows...)
}
