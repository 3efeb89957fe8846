package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrScopeUnset is returned when a scope was never constructed.
	ErrScopeUnset = errors.New("account scope is not set")
	// ErrInvalidQuery is wrapped by every EntryQuery validation failure.
	ErrInvalidQuery = errors.New("invalid entry query")
)

type scopeKind int

const (
	scopeUnset scopeKind = iota
	scopeSingle
	scopeAll
)

// Scope is the aggregation scope of a ledger view: one account (optionally
// with its descendants) or every account at once. Build it with
// SingleAccount or AllAccounts; the zero value is invalid.
type Scope struct {
	kind               scopeKind
	accountID          string
	includeDescendants bool
}

// SingleAccount scopes the ledger to one account.
func SingleAccount(accountID string, includeDescendants bool) Scope {
	return Scope{kind: scopeSingle, accountID: accountID, includeDescendants: includeDescendants}
}

// AllAccounts scopes the ledger to every account, each with its own running total.
func AllAccounts() Scope {
	return Scope{kind: scopeAll}
}

// IsAll reports whether the scope aggregates every account.
func (s Scope) IsAll() bool { return s.kind == scopeAll }

// AccountID returns the scoped account, "" for AllAccounts.
func (s Scope) AccountID() string { return s.accountID }

// IncludeDescendants reports whether child accounts are folded in.
func (s Scope) IncludeDescendants() bool { return s.includeDescendants }

// Validate rejects unset scopes and single-account scopes without an account.
func (s Scope) Validate() error {
	switch s.kind {
	case scopeAll:
		return nil
	case scopeSingle:
		if s.accountID == "" || s.accountID == AllAccountsID {
			return fmt.Errorf("single-account scope needs an account id, got %q", s.accountID)
		}
		return nil
	default:
		return ErrScopeUnset
	}
}

func (s Scope) String() string {
	switch s.kind {
	case scopeAll:
		return "all"
	case scopeSingle:
		if s.includeDescendants {
			return s.accountID + "+descendants"
		}
		return s.accountID
	default:
		return "unset"
	}
}

// DateRange bounds entries by posting date. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate rejects inverted ranges.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("date range inverted: %s after %s", r.From.Format(DateFormat), r.To.Format(DateFormat))
	}
	return nil
}

// Contains reports whether t falls inside the range (bounds inclusive, by day).
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !r.From.IsZero() && day.Before(truncateDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(truncateDay(r.To)) {
		return false
	}
	return true
}

// Label renders the range for document headers.
func (r DateRange) Label() string {
	switch {
	case r.From.IsZero() && r.To.IsZero():
		return "All dates"
	case r.From.IsZero():
		return "Up to " + r.To.Format(DateFormat)
	case r.To.IsZero():
		return "From " + r.From.Format(DateFormat)
	default:
		return r.From.Format(DateFormat) + " to " + r.To.Format(DateFormat)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EntryQuery is the filter set sent to an entry source.
type EntryQuery struct {
	Scope       Scope
	Range       DateRange
	VoucherType string
	Page        int
	PageSize    int
}

// Validate checks the query once at the boundary, before any request is built.
func (q EntryQuery) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidQuery, q.Page)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("%w: page size must be >= 1, got %d", ErrInvalidQuery, q.PageSize)
	}
	if err := q.Scope.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if err := q.Range.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return nil
}

// Offset returns the zero-based index of the first entry on the page.
func (q EntryQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// EntryPage is one page of entries plus the size of the whole filtered set.
type EntryPage struct {
	Entries []JournalEntry
	Total   int
}
