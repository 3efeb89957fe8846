// Package auditlog appends opening-balance writes to a CSV log kept next to
// the project configuration.
package auditlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Entry is one row in the opening-balance log.
type Entry struct {
	Timestamp   time.Time
	Actor       string
	Source      string
	AccountID   string
	FiscalYear  int
	Amount      decimal.Decimal // signed, debit minus credit
	Description string
}

// Header is the CSV header for opening-balance-log.csv.
const Header = "timestamp,actor,source,account_id,fiscal_year,amount,description"

// LogFile is the log path relative to the project root.
const LogFile = "logs/opening-balance-log.csv"

const (
	numFields      = 7
	colTimestamp   = 0
	colActor       = 1
	colSource      = 2
	colAccountID   = 3
	colFiscalYear  = 4
	colAmount      = 5
	colDescription = 6
)

// FromVoucher builds a log entry for a committed voucher.
func FromVoucher(v model.OpeningBalanceVoucher, actor, source string, at time.Time) Entry {
	return Entry{
		Timestamp:   at,
		Actor:       actor,
		Source:      source,
		AccountID:   v.Line.AccountID,
		FiscalYear:  v.FiscalYear,
		Amount:      v.Line.Signed(),
		Description: v.Line.Description,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colSource] = e.Source
	row[colAccountID] = e.AccountID
	row[colFiscalYear] = strconv.Itoa(e.FiscalYear)
	row[colAmount] = e.Amount.StringFixed(2)
	row[colDescription] = e.Description
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	year, err := strconv.Atoi(record[colFiscalYear])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing fiscal year %q: %w", record[colFiscalYear], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp:   ts,
		Actor:       record[colActor],
		Source:      record[colSource],
		AccountID:   record[colAccountID],
		FiscalYear:  year,
		Amount:      amount,
		Description: record[colDescription],
	}, nil
}

// Append writes entries to <root>/logs/opening-balance-log.csv, creating the
// file and header if needed.
func Append(root string, entries []Entry) error {
	path := filepath.Join(root, LogFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/opening-balance-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, LogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Hook returns a write hook that appends each committed voucher to the log
// under root.
func Hook(root, actor, source string, now func() time.Time) func(context.Context, model.OpeningBalanceVoucher) error {
	if now == nil {
		now = time.Now
	}
	return func(_ context.Context, v model.OpeningBalanceVoucher) error {
		return Append(root, []Entry{FromVoucher(v, actor, source, now())})
	}
}
