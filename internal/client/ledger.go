package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Accounts lists accounts, optionally only leaves, capped at limit.
func (c *Client) Accounts(ctx context.Context, onlyLeaf bool, limit int) ([]model.Account, error) {
	q := url.Values{}
	q.Set("onlyLeaf", flag(onlyLeaf))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var list accountList
	if err := c.do(ctx, http.MethodGet, "/accounts", q, nil, &list); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	out := make([]model.Account, 0, len(list))
	for _, a := range list {
		if a.ID == "" {
			continue
		}
		out = append(out, a.model())
	}
	return out, nil
}

// Query fetches one page of journal entries.
func (c *Client) Query(ctx context.Context, q model.EntryQuery) (model.EntryPage, error) {
	if err := q.Validate(); err != nil {
		return model.EntryPage{}, err
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.VoucherType != "" {
		v.Set("voucherType", q.VoucherType)
	}
	if !q.Range.From.IsZero() {
		v.Set("from", q.Range.From.Format(model.DateFormat))
	}
	if !q.Range.To.IsZero() {
		v.Set("to", q.Range.To.Format(model.DateFormat))
	}
	if q.Scope.IsAll() {
		v.Set("all", "1")
	} else {
		v.Set("all", "0")
		v.Set("accountId", q.Scope.AccountID())
		v.Set("includeDescendants", flag(q.Scope.IncludeDescendants()))
	}

	var resp journalsResponse
	if err := c.do(ctx, http.MethodGet, "/journals", v, nil, &resp); err != nil {
		return model.EntryPage{}, fmt.Errorf("fetching journals: %w", err)
	}

	page := model.EntryPage{Total: resp.Total, Entries: make([]model.JournalEntry, 0, len(resp.Entries))}
	for _, w := range resp.Entries {
		e, err := w.model()
		if err != nil {
			return model.EntryPage{}, fmt.Errorf("decoding journals: %w", err)
		}
		page.Entries = append(page.Entries, e)
	}
	return page, nil
}

// OpeningBalance reads the opening balance of an account for a fiscal year.
// A missing or null amount reads as zero.
func (c *Client) OpeningBalance(ctx context.Context, accountID string, year int, includeDescendants bool) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("accountId", accountID)
	q.Set("year", strconv.Itoa(year))
	q.Set("includeDescendants", flag(includeDescendants))

	var resp openingBalanceResponse
	if err := c.do(ctx, http.MethodGet, "/opening-balance", q, nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("fetching opening balance: %w", err)
	}
	if !resp.OpeningBalance.Valid {
		return decimal.Zero, nil
	}
	return resp.OpeningBalance.Decimal, nil
}

// WriteOpeningBalance posts a single-line opening-balance voucher.
func (c *Client) WriteOpeningBalance(ctx context.Context, v model.OpeningBalanceVoucher) error {
	body := openingRequest{
		Date:     v.Date.Format(model.DateFormat),
		BranchNo: v.BranchNo,
		Lines: []openingLine{{
			Account: v.Line.AccountID,
			Debit:   json.Number(v.Line.Debit.String()),
			Credit:  json.Number(v.Line.Credit.String()),
			Desc:    v.Line.Description,
		}},
	}
	if err := c.do(ctx, http.MethodPost, "/opening-balance", nil, body, nil); err != nil {
		return fmt.Errorf("writing opening balance: %w", err)
	}
	return nil
}
