package journal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerview/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRoundTrip(t *testing.T) {
	entries := []model.JournalEntry{
		{
			ID:          "je-1a",
			Date:        date(2025, 1, 3),
			VoucherNo:   "JV-0001",
			VoucherType: "journal",
			AccountID:   "5020",
			Description: "Card processing fees, January",
			Reference:   "stripe_po_123",
			Debit:       dec("4.00"),
		},
		{
			ID:          "je-1b",
			Date:        date(2025, 1, 3),
			VoucherNo:   "JV-0001",
			VoucherType: "journal",
			AccountID:   "1020",
			Description: "Card processing fees, January",
			Reference:   "stripe_po_123",
			Credit:      dec("4.00"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), "entry_id,"))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range entries {
		assert.Equal(t, entries[i].ID, got[i].ID)
		assert.True(t, entries[i].Date.Equal(got[i].Date))
		assert.Equal(t, entries[i].VoucherNo, got[i].VoucherNo)
		assert.Equal(t, entries[i].VoucherType, got[i].VoucherType)
		assert.Equal(t, entries[i].AccountID, got[i].AccountID)
		assert.Equal(t, entries[i].Description, got[i].Description)
		assert.Equal(t, entries[i].Reference, got[i].Reference)
		assert.True(t, entries[i].Debit.Equal(got[i].Debit), "debit mismatch row %d", i)
		assert.True(t, entries[i].Credit.Equal(got[i].Credit), "credit mismatch row %d", i)
	}
}

func TestMarshalEntry_EmptySides(t *testing.T) {
	row := MarshalEntry(model.JournalEntry{ID: "x", Date: date(2025, 2, 1), Debit: dec("10")})
	assert.Equal(t, "10.00", row[colDebit])
	assert.Equal(t, "", row[colCredit])
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	good := []string{"x", "2025-01-01", "", "", "1010", "", "", "1.00", ""}

	tests := []struct {
		name   string
		mutate func([]string) []string
	}{
		{"wrong field count", func(r []string) []string { return r[:5] }},
		{"bad date", func(r []string) []string { r[colDate] = "01/01/2025"; return r }},
		{"bad debit", func(r []string) []string { r[colDebit] = "abc"; return r }},
		{"bad credit", func(r []string) []string { r[colCredit] = "1,00"; return r }},
	}
	for _, tt := range tests {
		rec := tt.mutate(append([]string(nil), good...))
		_, err := UnmarshalEntry(rec)
		assert.Error(t, err, tt.name)
	}

	_, err := UnmarshalEntry(good)
	assert.NoError(t, err)
}

func TestReadEntries_Empty(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
