package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Request is one (scope, filters) tuple a ledger view is built for.
type Request struct {
	Scope       model.Scope
	Range       model.DateRange
	VoucherType string
}

// Validate rejects unset scopes and inverted ranges.
func (r Request) Validate() error {
	return r.Query().Validate()
}

// Query returns the entry query for the first page of the filtered set.
func (r Request) Query() model.EntryQuery {
	return model.EntryQuery{
		Scope:       r.Scope,
		Range:       r.Range,
		VoucherType: r.VoucherType,
		Page:        1,
		PageSize:    1,
	}
}

// Filters is the raw, string-typed form of a request as it arrives from a
// flag set or a query string.
type Filters struct {
	AccountID          string
	IncludeDescendants bool
	From               string
	To                 string
	VoucherType        string
}

// ParseRequest turns raw filters into a validated Request. An account id of
// ALL selects every account.
func ParseRequest(f Filters) (Request, error) {
	var req Request

	switch id := strings.TrimSpace(f.AccountID); {
	case id == "":
		return Request{}, fmt.Errorf("%w: %w", model.ErrInvalidQuery, model.ErrScopeUnset)
	case strings.EqualFold(id, model.AllAccountsID):
		req.Scope = model.AllAccounts()
	default:
		req.Scope = model.SingleAccount(id, f.IncludeDescendants)
	}

	var err error
	if req.Range.From, err = parseDate(f.From); err != nil {
		return Request{}, fmt.Errorf("%w: from: %w", model.ErrInvalidQuery, err)
	}
	if req.Range.To, err = parseDate(f.To); err != nil {
		return Request{}, fmt.Errorf("%w: to: %w", model.ErrInvalidQuery, err)
	}
	req.VoucherType = strings.TrimSpace(f.VoucherType)

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(model.DateFormat, s)
}
