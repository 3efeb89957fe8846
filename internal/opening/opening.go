// Package opening resolves and writes fiscal-year opening balances.
package opening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/metrics"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// ErrOpeningBalanceUnavailable is wrapped when the source could not answer.
var ErrOpeningBalanceUnavailable = errors.New("could not load opening balance")

// Store reads and writes opening balances.
type Store interface {
	OpeningBalance(ctx context.Context, accountID string, year int, includeDescendants bool) (decimal.Decimal, error)
	WriteOpeningBalance(ctx context.Context, v model.OpeningBalanceVoucher) error
}

// WriteHook runs after a successful write, e.g. to append an audit row.
// Hook errors are logged, not returned: the write already happened.
type WriteHook func(ctx context.Context, v model.OpeningBalanceVoucher) error

// Resolver resolves the opening balance a ledger view is anchored to.
type Resolver struct {
	store    Store
	fiscal   config.FiscalConfig
	branchNo string
	now      func() time.Time
	logger   *zap.Logger
	hooks    []WriteHook
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used for the default fiscal year.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithWriteHook adds a hook run after each successful write.
func WithWriteHook(h WriteHook) Option {
	return func(r *Resolver) { r.hooks = append(r.hooks, h) }
}

// NewResolver creates a Resolver.
func NewResolver(store Store, fiscal config.FiscalConfig, branchNo string, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		fiscal:   fiscal,
		branchNo: branchNo,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FiscalYear returns the fiscal year a ledger view over rng is anchored to:
// the year containing rng.From, else the current year.
func (r *Resolver) FiscalYear(rng model.DateRange) int {
	if !rng.From.IsZero() {
		return r.fiscal.YearOf(rng.From)
	}
	return r.fiscal.YearOf(r.now())
}

// Resolve returns the opening balance for scope. AllAccounts always
// resolves to zero without touching the store. Store failures resolve to
// zero with an error wrapping ErrOpeningBalanceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, scope model.Scope, rng model.DateRange) (decimal.Decimal, error) {
	if err := scope.Validate(); err != nil {
		return decimal.Zero, err
	}
	if scope.IsAll() {
		return decimal.Zero, nil
	}

	year := r.FiscalYear(rng)
	amount, err := r.store.OpeningBalance(ctx, scope.AccountID(), year, scope.IncludeDescendants())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			metrics.RecordFetchFailure("opening_balance")
		}
		r.logger.Warn("opening balance lookup failed",
			zap.String("account_id", scope.AccountID()),
			zap.Int("year", year),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: %w", ErrOpeningBalanceUnavailable, err)
	}
	return amount, nil
}

// WriteRequest sets one account's opening balance for a fiscal year.
type WriteRequest struct {
	Scope       model.Scope
	Year        int
	Side        model.Side
	Amount      decimal.Decimal
	Description string
}

// Voucher builds the single-line voucher for req after validating it.
func (r *Resolver) Voucher(req WriteRequest) (model.OpeningBalanceVoucher, error) {
	if err := Validate(req); err != nil {
		return model.OpeningBalanceVoucher{}, err
	}

	line := model.AdjustmentLine{
		AccountID:   req.Scope.AccountID(),
		Description: req.Description,
	}
	if line.Description == "" {
		line.Description = fmt.Sprintf("Opening balance %d", req.Year)
	}
	if req.Side == model.SideDebit {
		line.Debit = req.Amount
	} else {
		line.Credit = req.Amount
	}

	return model.OpeningBalanceVoucher{
		Date:       r.fiscal.Start(req.Year),
		FiscalYear: req.Year,
		BranchNo:   r.branchNo,
		Line:       line,
	}, nil
}

// Write validates req and commits one balanced line dated at the fiscal
// year start. Concurrent writers to the same account and year race; the
// last write wins.
func (r *Resolver) Write(ctx context.Context, req WriteRequest) (model.OpeningBalanceVoucher, error) {
	v, err := r.Voucher(req)
	if err != nil {
		return model.OpeningBalanceVoucher{}, err
	}
	if err := r.store.WriteOpeningBalance(ctx, v); err != nil {
		return model.OpeningBalanceVoucher{}, fmt.Errorf("writing opening balance: %w", err)
	}

	r.logger.Info("opening balance written",
		zap.String("account_id", v.Line.AccountID),
		zap.Int("year", v.FiscalYear),
		zap.String("amount", v.Line.Signed().StringFixed(2)))

	for _, h := range r.hooks {
		if err := h(ctx, v); err != nil {
			r.logger.Warn("opening balance write hook failed", zap.Error(err))
		}
	}
	return v, nil
}
