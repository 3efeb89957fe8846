// Package sqlstore reads accounts, journal lines and opening balances from
// Postgres.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// ErrUnknownAccount is returned when a write references a missing account.
var ErrUnknownAccount = errors.New("unknown account")

const foreignKeyViolation = "23503"

// Store is a Postgres-backed ledger source.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type accountRow struct {
	ID       string `db:"id"`
	Code     string `db:"code"`
	Name     string `db:"name"`
	ParentID string `db:"parent_id"`
}

// Accounts lists accounts ordered by code, optionally only leaves.
func (s *Store) Accounts(ctx context.Context, onlyLeaf bool, limit int) ([]model.Account, error) {
	var b strings.Builder
	b.WriteString(`SELECT a.id, a.code, a.name, COALESCE(a.parent_id, '') AS parent_id FROM accounts a`)
	if onlyLeaf {
		b.WriteString(` WHERE NOT EXISTS (SELECT 1 FROM accounts c WHERE c.parent_id = a.id)`)
	}
	b.WriteString(` ORDER BY a.code, a.id`)
	var args []any
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(b.String()), args...); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	out := make([]model.Account, len(rows))
	for i, r := range rows {
		out[i] = model.Account{ID: r.ID, Code: r.Code, Name: r.Name, ParentID: r.ParentID}
	}
	return out, nil
}

// scopeCTE selects the ids of an account and, when requested, every
// account below it.
const scopeCTE = `WITH RECURSIVE scope(id) AS (
	SELECT ?::text
	UNION
	SELECT a.id FROM accounts a JOIN scope s ON a.parent_id = s.id
) `

type lineRow struct {
	ID          string          `db:"id"`
	PostedOn    time.Time       `db:"posted_on"`
	VoucherNo   string          `db:"voucher_no"`
	VoucherType string          `db:"voucher_type"`
	AccountID   string          `db:"account_id"`
	AccountCode string          `db:"account_code"`
	AccountName string          `db:"account_name"`
	Description string          `db:"description"`
	Reference   string          `db:"reference"`
	Debit       decimal.Decimal `db:"debit"`
	Credit      decimal.Decimal `db:"credit"`
}

func (r lineRow) model() model.JournalEntry {
	y, m, d := r.PostedOn.Date()
	return model.JournalEntry{
		ID:          r.ID,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Description: r.Description,
		Reference:   r.Reference,
		VoucherNo:   r.VoucherNo,
		VoucherType: r.VoucherType,
		AccountID:   r.AccountID,
		AccountCode: r.AccountCode,
		AccountName: r.AccountName,
		Debit:       r.Debit,
		Credit:      r.Credit,
	}
}

// filter renders the WHERE clause and arguments shared by the count and
// page queries. prefix is the optional CTE.
func filter(q model.EntryQuery) (prefix, where string, args []any) {
	var conds []string
	if !q.Scope.IsAll() {
		if q.Scope.IncludeDescendants() {
			prefix = scopeCTE
			args = append(args, q.Scope.AccountID())
			conds = append(conds, `l.account_id IN (SELECT id FROM scope)`)
		} else {
			conds = append(conds, `l.account_id = ?`)
			args = append(args, q.Scope.AccountID())
		}
	}
	if !q.Range.From.IsZero() {
		conds = append(conds, `l.posted_on >= ?`)
		args = append(args, q.Range.From.Format(model.DateFormat))
	}
	if !q.Range.To.IsZero() {
		conds = append(conds, `l.posted_on <= ?`)
		args = append(args, q.Range.To.Format(model.DateFormat))
	}
	if q.VoucherType != "" {
		conds = append(conds, `l.voucher_type = ?`)
		args = append(args, q.VoucherType)
	}
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}
	return prefix, where, args
}

// Query returns one page of journal lines and the size of the filtered set.
func (s *Store) Query(ctx context.Context, q model.EntryQuery) (model.EntryPage, error) {
	if err := q.Validate(); err != nil {
		return model.EntryPage{}, err
	}
	prefix, where, args := filter(q)

	var total int
	countSQL := prefix + `SELECT count(*) FROM journal_lines l` + where
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countSQL), args...); err != nil {
		return model.EntryPage{}, fmt.Errorf("counting journal lines: %w", err)
	}
	page := model.EntryPage{Total: total, Entries: []model.JournalEntry{}}
	if total == 0 || q.Offset() >= total {
		return page, nil
	}

	pageSQL := prefix + `SELECT l.id, l.posted_on, l.voucher_no, l.voucher_type, l.account_id,
		a.code AS account_code, a.name AS account_name, l.description, l.reference, l.debit, l.credit
		FROM journal_lines l JOIN accounts a ON a.id = l.account_id` + where +
		` ORDER BY l.posted_on, l.voucher_no, l.id, l.account_id LIMIT ? OFFSET ?`
	pageArgs := append(args[:len(args):len(args)], q.PageSize, q.Offset())

	var rows []lineRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(pageSQL), pageArgs...); err != nil {
		return model.EntryPage{}, fmt.Errorf("selecting journal lines: %w", err)
	}
	for _, r := range rows {
		page.Entries = append(page.Entries, r.model())
	}
	return page, nil
}

// OpeningBalance returns the opening balance of an account for a fiscal
// year, summed over its descendants when requested. Missing rows read as
// zero.
func (s *Store) OpeningBalance(ctx context.Context, accountID string, year int, includeDescendants bool) (decimal.Decimal, error) {
	var query string
	var args []any
	if includeDescendants {
		query = scopeCTE + `SELECT COALESCE(SUM(debit - credit), 0) FROM opening_balances
			WHERE fiscal_year = ? AND account_id IN (SELECT id FROM scope)`
		args = []any{accountID, year}
	} else {
		query = `SELECT COALESCE(SUM(debit - credit), 0) FROM opening_balances
			WHERE fiscal_year = ? AND account_id = ?`
		args = []any{year, accountID}
	}

	var amount decimal.Decimal
	if err := s.db.GetContext(ctx, &amount, s.db.Rebind(query), args...); err != nil {
		return decimal.Zero, fmt.Errorf("reading opening balance: %w", err)
	}
	return amount, nil
}

type openingRow struct {
	AccountID   string          `db:"account_id"`
	FiscalYear  int             `db:"fiscal_year"`
	PostedOn    string          `db:"posted_on"`
	BranchNo    string          `db:"branch_no"`
	Debit       decimal.Decimal `db:"debit"`
	Credit      decimal.Decimal `db:"credit"`
	Description string          `db:"description"`
}

const upsertOpening = `INSERT INTO opening_balances
	(account_id, fiscal_year, posted_on, branch_no, debit, credit, description, updated_at)
	VALUES (:account_id, :fiscal_year, :posted_on, :branch_no, :debit, :credit, :description, now())
	ON CONFLICT (account_id, fiscal_year) DO UPDATE SET
		posted_on = EXCLUDED.posted_on,
		branch_no = EXCLUDED.branch_no,
		debit = EXCLUDED.debit,
		credit = EXCLUDED.credit,
		description = EXCLUDED.description,
		updated_at = now()`

// WriteOpeningBalance replaces the opening balance of the voucher's account
// and year.
func (s *Store) WriteOpeningBalance(ctx context.Context, v model.OpeningBalanceVoucher) error {
	row := openingRow{
		AccountID:   v.Line.AccountID,
		FiscalYear:  v.FiscalYear,
		PostedOn:    v.Date.Format(model.DateFormat),
		BranchNo:    v.BranchNo,
		Debit:       v.Line.Debit,
		Credit:      v.Line.Credit,
		Description: v.Line.Description,
	}
	if _, err := s.db.NamedExecContext(ctx, upsertOpening, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, v.Line.AccountID)
		}
		return fmt.Errorf("upserting opening balance: %w", err)
	}
	s.logger.Debug("opening balance upserted",
		zap.String("account_id", row.AccountID),
		zap.Int("fiscal_year", row.FiscalYear))
	return nil
}
