package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerview/internal/id"
	"github.com/cleared-dev/ledgerview/internal/ledger"
	"github.com/cleared-dev/ledgerview/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(entryID string, day int, debit, credit string) model.JournalEntry {
	return model.JournalEntry{
		ID:        entryID,
		Date:      time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		VoucherNo: fmt.Sprintf("JV-%02d", day),
		AccountID: "1010",
		Debit:     dec(debit),
		Credit:    dec(credit),
	}
}

// ledgerOf annotates n entries alternating debits and credits.
func ledgerOf(n int, opening decimal.Decimal) []model.AnnotatedEntry {
	entries := make([]model.JournalEntry, n)
	for i := range entries {
		if i%2 == 0 {
			entries[i] = entry(fmt.Sprintf("e%02d", i), i+1, "100", "0")
		} else {
			entries[i] = entry(fmt.Sprintf("e%02d", i), i+1, "0", "30")
		}
	}
	return ledger.Calculate(entries, model.SingleAccount("1010", false), opening)
}

func TestPageView_NewestFirstWithPageTotals(t *testing.T) {
	rows := ledgerOf(5, dec("1000"))

	p := PageView(rows, Window{Page: 1, PageSize: 2})
	require.Len(t, p.Rows, 2)
	assert.Equal(t, "e04", p.Rows[0].ID)
	assert.Equal(t, "e03", p.Rows[1].ID)
	assert.Equal(t, 5, p.TotalRows)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, dec("100").Equal(p.Totals.Debit))
	assert.True(t, dec("30").Equal(p.Totals.Credit))
	assert.True(t, dec("70").Equal(p.Totals.Difference))

	// Balances come from the full-set computation, not the page.
	assert.True(t, dec("1240").Equal(p.Rows[0].RunningBalance), p.Rows[0].RunningBalance.String())
}

func TestPageView_LastPartialPage(t *testing.T) {
	rows := ledgerOf(5, decimal.Zero)

	p := PageView(rows, Window{Page: 3, PageSize: 2})
	require.Len(t, p.Rows, 1)
	assert.Equal(t, "e00", p.Rows[0].ID)
	assert.True(t, dec("100").Equal(p.Rows[0].RunningBalance))
}

func TestPageView_BeyondLastPage(t *testing.T) {
	p := PageView(ledgerOf(3, decimal.Zero), Window{Page: 9, PageSize: 2})
	assert.Empty(t, p.Rows)
	assert.True(t, p.Totals.Debit.IsZero())
}

func TestPageView_Empty(t *testing.T) {
	p := PageView(nil, Window{})
	assert.NotNil(t, p.Rows)
	assert.Empty(t, p.Rows)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Zero(t, p.TotalPages)
	assert.True(t, p.Totals.Debit.IsZero())
	assert.True(t, p.Totals.Credit.IsZero())
	assert.True(t, p.Totals.Difference.IsZero())
}

func TestPageView_DoesNotMutateInput(t *testing.T) {
	rows := ledgerOf(4, decimal.Zero)
	before := make([]string, len(rows))
	for i, r := range rows {
		before[i] = r.RowKey
	}
	PageView(rows, Window{Page: 1, PageSize: 10})
	for i, r := range rows {
		assert.Equal(t, before[i], r.RowKey)
	}
}

func TestPrintView_OpeningRowEntriesTotals(t *testing.T) {
	opening := dec("1000")
	rows := ledgerOf(4, opening)

	doc := PrintView(rows, opening, Header{Title: "General Ledger"})
	assert.Equal(t, id.OpeningRowKey, doc.Opening.RowKey)
	assert.True(t, opening.Equal(doc.Opening.RunningBalance))
	assert.True(t, doc.Opening.Debit.IsZero())
	assert.True(t, doc.Opening.Credit.IsZero())

	lines := doc.Lines()
	require.Len(t, lines, 5)
	assert.Equal(t, id.OpeningRowKey, lines[0].RowKey)
	for i := 2; i < len(lines); i++ {
		assert.False(t, lines[i].Date.Before(lines[i-1].Date), "canonical ascending")
	}

	assert.True(t, dec("200").Equal(doc.Totals.Debit))
	assert.True(t, dec("60").Equal(doc.Totals.Credit))
	assert.True(t, dec("1140").Equal(doc.Closing))
	assert.True(t, doc.Closing.Equal(lines[len(lines)-1].RunningBalance))
}

func TestPrintView_Empty(t *testing.T) {
	doc := PrintView(nil, dec("250"), Header{})
	assert.Len(t, doc.Lines(), 1)
	assert.True(t, dec("250").Equal(doc.Closing))
	assert.True(t, doc.Totals.Debit.IsZero())
}

func TestPageAndPrintReconcileOnFullWindow(t *testing.T) {
	opening := dec("500")
	rows := ledgerOf(7, opening)

	page := PageView(rows, Window{Page: 1, PageSize: len(rows)})
	doc := PrintView(rows, opening, Header{})

	assert.True(t, page.Totals.Debit.Equal(doc.Totals.Debit))
	assert.True(t, page.Totals.Credit.Equal(doc.Totals.Credit))
	assert.True(t, page.Totals.Difference.Equal(doc.Totals.Difference))

	require.Len(t, doc.Rows, len(page.Rows))
	for i, r := range page.Rows {
		mirrored := doc.Rows[len(doc.Rows)-1-i]
		assert.Equal(t, mirrored.RowKey, r.RowKey)
		assert.True(t, mirrored.RunningBalance.Equal(r.RunningBalance))
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	p := PageView(ledgerOf(3, decimal.Zero), Window{Page: 1, PageSize: 2})
	require.NoError(t, WriteTable(&buf, p))

	out := buf.String()
	assert.Contains(t, out, "Balance")
	assert.Contains(t, out, "Totals")
	assert.Contains(t, out, "Page 1 of 2 (3 rows)")
	assert.Less(t, strings.Index(out, "JV-03"), strings.Index(out, "JV-02"))
}

func TestWriteText_PagesRepeatHeader(t *testing.T) {
	opening := dec("1000")
	doc := PrintView(ledgerOf(30, opening), opening, Header{
		Title:        "General Ledger",
		AccountLabel: "1010 Operating Cash",
		RangeLabel:   "All dates",
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, doc, Layout{LinesPerPage: 12, LeftMargin: 4}))

	pages := strings.Split(buf.String(), pageBreak)
	require.Greater(t, len(pages), 1)
	for _, p := range pages {
		assert.True(t, strings.HasPrefix(p, "    General Ledger\n"), p)
		assert.LessOrEqual(t, strings.Count(p, "\n"), 12)
	}

	assert.Contains(t, pages[0], OpeningDescription)
	last := pages[len(pages)-1]
	assert.Contains(t, last, "Totals")
	assert.Contains(t, last, doc.Closing.StringFixed(2))
	assert.Contains(t, last, fmt.Sprintf("Page %d of %d", len(pages), len(pages)))

	assert.Less(t, strings.Index(buf.String(), OpeningDescription), strings.Index(buf.String(), "JV-01"))
}

func TestWriteCSV(t *testing.T) {
	opening := dec("1000")
	doc := PrintView(ledgerOf(2, opening), opening, Header{})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, doc))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, strings.Split(CSVHeader, ","), records[0])
	assert.Equal(t, id.OpeningRowKey, records[1][0])
	assert.Equal(t, "1000.00", records[1][10])
	assert.Equal(t, "e00-0", records[2][0])
	assert.Equal(t, "1100.00", records[2][10])
	assert.Equal(t, "1070.00", records[3][10])
	assert.Equal(t, "totals", records[4][0])
	assert.Equal(t, "1070.00", records[4][10])
}
