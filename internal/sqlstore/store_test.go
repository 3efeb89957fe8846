package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cleared-dev/ledgerview/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), zaptest.NewLogger(t)), mock
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccounts_OnlyLeaf(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "code", "name", "parent_id"}).
		AddRow("1010", "1010", "Cash", "1000").
		AddRow("1020", "1020", "Receivable", "1000")
	mock.ExpectQuery(`SELECT a.id, a.code, a.name.*WHERE NOT EXISTS.*LIMIT \$1`).
		WithArgs(1000).
		WillReturnRows(rows)

	got, err := s.Accounts(context.Background(), true, 1000)
	require.NoError(t, err)
	assert.Equal(t, []model.Account{
		{ID: "1010", Code: "1010", Name: "Cash", ParentID: "1000"},
		{ID: "1020", Code: "1020", Name: "Receivable", ParentID: "1000"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_SingleAccountWithDescendants(t *testing.T) {
	s, mock := newMockStore(t)
	q := model.EntryQuery{
		Scope:    model.SingleAccount("1000", true),
		Range:    model.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Page:     2,
		PageSize: 2,
	}

	mock.ExpectQuery(`WITH RECURSIVE scope.*SELECT count\(\*\) FROM journal_lines l WHERE l.account_id IN \(SELECT id FROM scope\) AND l.posted_on >= \$2`).
		WithArgs("1000", "2024-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`WITH RECURSIVE scope.*ORDER BY l.posted_on, l.voucher_no, l.id, l.account_id LIMIT \$3 OFFSET \$4`).
		WithArgs("1000", "2024-01-01", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "posted_on", "voucher_no", "voucher_type", "account_id",
			"account_code", "account_name", "description", "reference", "debit", "credit",
		}).AddRow("je-3", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), "JV-3", "JV", "1010",
			"1010", "Cash", "Payout", "", "0.00", "125.50"))

	page, err := s.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 1)
	e := page.Entries[0]
	assert.Equal(t, "je-3", e.ID)
	assert.Equal(t, "Cash", e.AccountName)
	assert.True(t, decimal.RequireFromString("125.50").Equal(e.Credit))
	assert.True(t, e.Debit.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_AllAccountsEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`^SELECT count\(\*\) FROM journal_lines l WHERE l.voucher_type = \$1$`).
		WithArgs("PV").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := s.Query(context.Background(), model.EntryQuery{
		Scope: model.AllAccounts(), VoucherType: "PV", Page: 1, PageSize: 50,
	})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_Invalid(t *testing.T) {
	s, mock := newMockStore(t)
	_, err := s.Query(context.Background(), model.EntryQuery{Page: 1, PageSize: 1})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpeningBalance(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(debit - credit\), 0\) FROM opening_balances\s+WHERE fiscal_year = \$1 AND account_id = \$2`).
		WithArgs(2024, "1010").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("-300.25"))

	got, err := s.OpeningBalance(context.Background(), "1010", 2024, false)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-300.25").Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpeningBalance_Descendants(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`WITH RECURSIVE scope.*WHERE fiscal_year = \$2 AND account_id IN \(SELECT id FROM scope\)`).
		WithArgs("1000", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

	got, err := s.OpeningBalance(context.Background(), "1000", 2024, true)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func voucher() model.OpeningBalanceVoucher {
	return model.OpeningBalanceVoucher{
		Date:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2025,
		BranchNo:   "7",
		Line:       model.AdjustmentLine{AccountID: "1010", Debit: decimal.NewFromInt(500), Description: "Opening balance 2025"},
	}
}

func TestWriteOpeningBalance_Upsert(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO opening_balances .* ON CONFLICT \(account_id, fiscal_year\) DO UPDATE`).
		WithArgs("1010", 2025, "2025-01-01", "7", sqlmock.AnyArg(), sqlmock.AnyArg(), "Opening balance 2025").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.WriteOpeningBalance(context.Background(), voucher()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteOpeningBalance_UnknownAccount(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO opening_balances`).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := s.WriteOpeningBalance(context.Background(), voucher())
	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
