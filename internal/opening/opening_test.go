package opening

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type lookup struct {
	accountID          string
	year               int
	includeDescendants bool
}

type mockStore struct {
	balance  decimal.Decimal
	err      error
	lookups  []lookup
	written  []model.OpeningBalanceVoucher
	writeErr error
}

func (m *mockStore) OpeningBalance(_ context.Context, accountID string, year int, includeDescendants bool) (decimal.Decimal, error) {
	m.lookups = append(m.lookups, lookup{accountID, year, includeDescendants})
	return m.balance, m.err
}

func (m *mockStore) WriteOpeningBalance(_ context.Context, v model.OpeningBalanceVoucher) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, v)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
}

func newResolver(t *testing.T, store Store, opts ...Option) *Resolver {
	opts = append([]Option{WithClock(fixedClock), WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewResolver(store, config.FiscalConfig{YearStart: "01-01"}, "7", opts...)
}

func TestResolve_AllAccountsIsZero(t *testing.T) {
	store := &mockStore{balance: dec("500")}
	r := newResolver(t, store)

	got, err := r.Resolve(context.Background(), model.AllAccounts(), model.DateRange{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	assert.Empty(t, store.lookups, "aggregate never asks the store")
}

func TestResolve_YearFromRangeStart(t *testing.T) {
	store := &mockStore{balance: dec("1000")}
	r := newResolver(t, store)

	rng := model.DateRange{From: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)}
	got, err := r.Resolve(context.Background(), model.SingleAccount("1010", true), rng)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1000")))
	assert.Equal(t, []lookup{{"1010", 2023, true}}, store.lookups)
}

func TestResolve_YearDefaultsToCurrent(t *testing.T) {
	store := &mockStore{}
	r := newResolver(t, store)

	_, err := r.Resolve(context.Background(), model.SingleAccount("1010", false), model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2025, store.lookups[0].year)
}

func TestResolve_NonCalendarFiscalYear(t *testing.T) {
	store := &mockStore{}
	r := NewResolver(store, config.FiscalConfig{YearStart: "04-01"}, "1", WithClock(fixedClock))

	rng := model.DateRange{From: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)}
	_, err := r.Resolve(context.Background(), model.SingleAccount("1010", false), rng)
	require.NoError(t, err)
	assert.Equal(t, 2023, store.lookups[0].year)
}

func TestResolve_FailureIsZero(t *testing.T) {
	store := &mockStore{balance: dec("99"), err: errors.New("dial tcp: connection refused")}
	r := newResolver(t, store)

	got, err := r.Resolve(context.Background(), model.SingleAccount("1010", false), model.DateRange{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpeningBalanceUnavailable)
	assert.True(t, got.IsZero())
}

func TestResolve_UnsetScope(t *testing.T) {
	r := newResolver(t, &mockStore{})
	_, err := r.Resolve(context.Background(), model.Scope{}, model.DateRange{})
	assert.ErrorIs(t, err, model.ErrScopeUnset)
}

func TestWrite_DebitLine(t *testing.T) {
	store := &mockStore{}
	var hooked []model.OpeningBalanceVoucher
	r := newResolver(t, store, WithWriteHook(func(_ context.Context, v model.OpeningBalanceVoucher) error {
		hooked = append(hooked, v)
		return nil
	}))

	v, err := r.Write(context.Background(), WriteRequest{
		Scope:  model.SingleAccount("1010", false),
		Year:   2025,
		Side:   model.SideDebit,
		Amount: dec("1500.00"),
	})
	require.NoError(t, err)

	require.Len(t, store.written, 1)
	assert.Equal(t, v, store.written[0])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), v.Date)
	assert.Equal(t, 2025, v.FiscalYear)
	assert.Equal(t, "7", v.BranchNo)
	assert.Equal(t, "1010", v.Line.AccountID)
	assert.True(t, v.Line.Debit.Equal(dec("1500")))
	assert.True(t, v.Line.Credit.IsZero())
	assert.Equal(t, "Opening balance 2025", v.Line.Description)
	assert.Len(t, hooked, 1)
}

func TestWrite_CreditLine(t *testing.T) {
	store := &mockStore{}
	r := newResolver(t, store)

	v, err := r.Write(context.Background(), WriteRequest{
		Scope:       model.SingleAccount("2010", false),
		Year:        2025,
		Side:        model.SideCredit,
		Amount:      dec("20"),
		Description: "carried forward",
	})
	require.NoError(t, err)
	assert.True(t, v.Line.Debit.IsZero())
	assert.True(t, v.Line.Credit.Equal(dec("20")))
	assert.Equal(t, "carried forward", v.Line.Description)
}

func TestWrite_ValidationFailures(t *testing.T) {
	base := WriteRequest{Scope: model.SingleAccount("1010", false), Year: 2025, Side: model.SideDebit, Amount: dec("1")}

	tests := []struct {
		name   string
		mutate func(*WriteRequest)
		field  string
	}{
		{"zero amount", func(r *WriteRequest) { r.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(r *WriteRequest) { r.Amount = dec("-5") }, "amount"},
		{"sub-cent amount", func(r *WriteRequest) { r.Amount = dec("1.001") }, "amount"},
		{"bad side", func(r *WriteRequest) { r.Side = "both" }, "side"},
		{"all accounts", func(r *WriteRequest) { r.Scope = model.AllAccounts() }, "account"},
		{"unset scope", func(r *WriteRequest) { r.Scope = model.Scope{} }, "account"},
		{"bad year", func(r *WriteRequest) { r.Year = 0 }, "year"},
	}
	for _, tt := range tests {
		store := &mockStore{}
		r := newResolver(t, store)
		req := base
		tt.mutate(&req)

		_, err := r.Write(context.Background(), req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tt.name)
		assert.Equal(t, tt.field, verr.Field, tt.name)
		assert.Empty(t, store.written, "%s: nothing dispatched", tt.name)
	}
}

func TestWrite_StoreFailure(t *testing.T) {
	store := &mockStore{writeErr: errors.New("boom")}
	r := newResolver(t, store)

	_, err := r.Write(context.Background(), WriteRequest{
		Scope: model.SingleAccount("1010", false), Year: 2025, Side: model.SideDebit, Amount: dec("1"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing opening balance")
}

func TestWrite_HookFailureDoesNotFailWrite(t *testing.T) {
	store := &mockStore{}
	r := newResolver(t, store, WithWriteHook(func(context.Context, model.OpeningBalanceVoucher) error {
		return errors.New("audit log unavailable")
	}))

	_, err := r.Write(context.Background(), WriteRequest{
		Scope: model.SingleAccount("1010", false), Year: 2025, Side: model.SideCredit, Amount: dec("3"),
	})
	require.NoError(t, err)
	assert.Len(t, store.written, 1)
}
