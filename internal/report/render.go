package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Layout controls the fixed-layout text document.
type Layout struct {
	LinesPerPage int
	LeftMargin   int
}

// Defaults for the printed document.
const (
	DefaultLinesPerPage = 60
	minLinesPerPage     = 10
	pageBreak           = "\f"
)

var columns = []string{"Date", "Voucher", "Account", "Description", "Reference", "Debit", "Credit", "Balance"}

// CSVHeader is the header row of the CSV export.
const CSVHeader = "row_key,date,voucher_no,account_id,account_code,account_name,description,reference,debit,credit,running_balance"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return money(d)
}

func dateCell(e model.AnnotatedEntry) string {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format(model.DateFormat)
}

func accountCell(e model.AnnotatedEntry) string {
	switch {
	case e.AccountCode != "" && e.AccountName != "":
		return e.AccountCode + " " + e.AccountName
	case e.AccountCode != "":
		return e.AccountCode
	default:
		return e.AccountID
	}
}

func cells(e model.AnnotatedEntry) []string {
	return []string{
		dateCell(e),
		e.VoucherNo,
		accountCell(e),
		e.Description,
		e.Reference,
		amount(e.Debit),
		amount(e.Credit),
		money(e.RunningBalance),
	}
}

func writeRow(w io.Writer, margin string, fields []string) error {
	_, err := fmt.Fprintln(w, margin+strings.Join(fields, "\t")+"\t")
	return err
}

func totalsRow(t Totals, balance string) []string {
	return []string{"", "", "", "Totals", "", money(t.Debit), money(t.Credit), balance}
}

// WriteTable renders one display page as an aligned text table.
func WriteTable(w io.Writer, p Page) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if err := writeRow(tw, "", columns); err != nil {
		return err
	}
	for _, r := range p.Rows {
		if err := writeRow(tw, "", cells(r)); err != nil {
			return err
		}
	}
	if err := writeRow(tw, "", totalsRow(p.Totals, "")); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d rows)\n", p.Page, max(p.TotalPages, 1), p.TotalRows)
	return err
}

// WriteText renders the document as fixed-layout pages. The header repeats
// on every page, the opening row comes first, and the totals row comes last.
// Pages are separated by a form feed.
func WriteText(w io.Writer, d PrintDocument, l Layout) error {
	if l.LinesPerPage <= 0 {
		l.LinesPerPage = DefaultLinesPerPage
	}
	l.LinesPerPage = max(l.LinesPerPage, minLinesPerPage)
	margin := strings.Repeat(" ", max(l.LeftMargin, 0))

	head := headerLines(d.Header)
	perPage := l.LinesPerPage - len(head) - 2 // column row and page footer
	lines := d.Lines()
	pages := (len(lines) + 1 + perPage - 1) / perPage // +1 for totals

	// Align columns across the whole document by laying every row out once.
	var body strings.Builder
	tw := tabwriter.NewWriter(&body, 0, 0, 2, ' ', tabwriter.AlignRight)
	if err := writeRow(tw, "", columns); err != nil {
		return err
	}
	for _, r := range lines {
		if err := writeRow(tw, "", cells(r)); err != nil {
			return err
		}
	}
	if err := writeRow(tw, "", totalsRow(d.Totals, money(d.Closing))); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	rendered := strings.Split(strings.TrimRight(body.String(), "\n"), "\n")
	colRow, rows := rendered[0], rendered[1:]

	for page := 0; page < pages; page++ {
		if page > 0 {
			if _, err := io.WriteString(w, pageBreak); err != nil {
				return err
			}
		}
		for _, h := range head {
			if _, err := fmt.Fprintln(w, margin+h); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, margin+colRow); err != nil {
			return err
		}
		start := page * perPage
		end := min(start+perPage, len(rows))
		for _, r := range rows[start:end] {
			if _, err := fmt.Fprintln(w, margin+r); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%sPage %d of %d\n", margin, page+1, pages); err != nil {
			return err
		}
	}
	return nil
}

func headerLines(h Header) []string {
	out := []string{h.Title, "Account: " + h.AccountLabel, "Period: " + h.RangeLabel}
	if !h.GeneratedAt.IsZero() {
		out = append(out, "Generated: "+h.GeneratedAt.Format("2006-01-02 15:04"))
	}
	return append(out, "")
}

// WriteCSV exports the document: opening row, canonical entries, totals row.
func WriteCSV(w io.Writer, d PrintDocument) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(CSVHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range d.Lines() {
		if err := cw.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("writing row %s: %w", r.RowKey, err)
		}
	}
	totals := []string{"totals", "", "", "", "", "", "Totals", "", money(d.Totals.Debit), money(d.Totals.Credit), money(d.Closing)}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(e model.AnnotatedEntry) []string {
	return []string{
		e.RowKey,
		dateCell(e),
		e.VoucherNo,
		e.AccountID,
		e.AccountCode,
		e.AccountName,
		e.Description,
		e.Reference,
		money(e.Debit),
		money(e.Credit),
		money(e.RunningBalance),
	}
}
