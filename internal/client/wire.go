package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// flexID accepts an identifier sent as either a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexDate accepts "2006-01-02" or a full RFC 3339 timestamp.
type flexDate time.Time

func (f *flexDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*f = flexDate(time.Time{})
		return nil
	}
	if t, err := time.Parse(model.DateFormat, s); err == nil {
		*f = flexDate(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	y, m, d := t.Date()
	*f = flexDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return nil
}

type wireAccount struct {
	ID       flexID `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ParentID flexID `json:"parentId"`
}

func (a wireAccount) model() model.Account {
	return model.Account{
		ID:       string(a.ID),
		Code:     a.Code,
		Name:     a.Name,
		ParentID: string(a.ParentID),
	}
}

// accountList decodes either a bare array or an object wrapping it in "data".
type accountList []wireAccount

func (l *accountList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []wireAccount
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var wrapped struct {
		Data []wireAccount `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Data
	return nil
}

type wireEntry struct {
	ID          flexID              `json:"id"`
	Date        flexDate            `json:"date"`
	Description string              `json:"description"`
	Reference   string              `json:"reference"`
	VoucherNo   string              `json:"voucherNo"`
	VoucherType string              `json:"voucherType"`
	AccountID   flexID              `json:"accountId"`
	AccountCode string              `json:"accountCode"`
	AccountName string              `json:"accountName"`
	Debit       decimal.NullDecimal `json:"debit"`
	Credit      decimal.NullDecimal `json:"credit"`
}

func (e wireEntry) model() (model.JournalEntry, error) {
	if e.ID == "" {
		return model.JournalEntry{}, errors.New("entry without id")
	}
	if time.Time(e.Date).IsZero() {
		return model.JournalEntry{}, fmt.Errorf("entry %s: missing date", e.ID)
	}
	out := model.JournalEntry{
		ID:          string(e.ID),
		Date:        time.Time(e.Date),
		Description: e.Description,
		Reference:   e.Reference,
		VoucherNo:   strings.TrimSpace(e.VoucherNo),
		VoucherType: e.VoucherType,
		AccountID:   string(e.AccountID),
		AccountCode: e.AccountCode,
		AccountName: e.AccountName,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	if e.Debit.Valid {
		out.Debit = e.Debit.Decimal
	}
	if e.Credit.Valid {
		out.Credit = e.Credit.Decimal
	}
	if out.Debit.IsNegative() || out.Credit.IsNegative() {
		return model.JournalEntry{}, fmt.Errorf("entry %s: negative amount", e.ID)
	}
	return out, nil
}

type journalsResponse struct {
	Entries []wireEntry `json:"entries"`
	Total   int         `json:"total"`
}

type openingBalanceResponse struct {
	OpeningBalance decimal.NullDecimal `json:"openingBalance"`
}

type openingLine struct {
	Account string      `json:"account"`
	Debit   json.Number `json:"debit"`
	Credit  json.Number `json:"credit"`
	Desc    string      `json:"desc"`
}

type openingRequest struct {
	Date     string        `json:"date"`
	BranchNo string        `json:"branchNo"`
	Lines    []openingLine `json:"lines"`
}
