package auditlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerview/internal/model"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:   testTime,
		Actor:       "cli",
		Source:      "file",
		AccountID:   "1010",
		FiscalYear:  2025,
		Amount:      decimal.NewFromInt(-250),
		Description: "Opening balance 2025",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1010", entries[0].AccountID)
	assert.True(t, decimal.NewFromInt(-250).Equal(entries[0].Amount))
	assert.Equal(t, testTime, entries[0].Timestamp)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.AccountID = "2010"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1010", entries[0].AccountID)
	assert.Equal(t, "2010", entries[1].AccountID)

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestRead_NonExistent(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(row[:3])
	assert.Error(t, err)

	bad := append([]string(nil), row...)
	bad[colFiscalYear] = "next"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[colAmount] = "lots"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)
}

func TestHook(t *testing.T) {
	dir := t.TempDir()
	hook := Hook(dir, "api", "postgres", func() time.Time { return testTime })

	v := model.OpeningBalanceVoucher{
		Date:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2025,
		Line:       model.AdjustmentLine{AccountID: "1010", Debit: decimal.NewFromInt(900), Description: "carry"},
	}
	require.NoError(t, hook(context.Background(), v))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "api", entries[0].Actor)
	assert.Equal(t, "postgres", entries[0].Source)
	assert.True(t, decimal.NewFromInt(900).Equal(entries[0].Amount))
}
