// Package reconcile loads a ledger view: it resolves the opening balance
// and fetches the complete filtered entry set in parallel, then annotates
// running balances over the whole set.
package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/ledgerview/internal/entries"
	"github.com/cleared-dev/ledgerview/internal/ledger"
	"github.com/cleared-dev/ledgerview/internal/metrics"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/opening"
	"github.com/cleared-dev/ledgerview/internal/report"
)

// Notice is a non-fatal, user-facing message about a degraded load.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Notices raised by Load. Messages never carry transport detail.
var (
	NoticeLedgerUnavailable  = Notice{Code: "LEDGER_UNAVAILABLE", Message: entries.ErrLedgerUnavailable.Error()}
	NoticeOpeningUnavailable = Notice{Code: "OPENING_BALANCE_UNAVAILABLE", Message: opening.ErrOpeningBalanceUnavailable.Error()}
)

// OpeningResolver resolves the opening balance for a scope.
type OpeningResolver interface {
	Resolve(ctx context.Context, scope model.Scope, rng model.DateRange) (decimal.Decimal, error)
}

// EntryLoader fetches every entry matching a query.
type EntryLoader interface {
	All(ctx context.Context, q model.EntryQuery) ([]model.JournalEntry, error)
}

// Loader builds a View for a request.
type Loader interface {
	Load(ctx context.Context, req Request) (*View, error)
}

// Service builds ledger views.
type Service struct {
	opening OpeningResolver
	entries EntryLoader
	logger  *zap.Logger
}

// NewService creates a Service.
func NewService(opening OpeningResolver, entries EntryLoader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{opening: opening, entries: entries, logger: logger}
}

// Load validates req, then fetches the opening balance and the entries in
// parallel. Fetch failures degrade to zero or empty defaults and a Notice;
// the only errors returned are validation failures and cancellation of ctx.
func (s *Service) Load(ctx context.Context, req Request) (*View, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		openingBalance decimal.Decimal
		rows           []model.JournalEntry
		openingErr     error
		entriesErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.opening.Resolve(gctx, req.Scope, req.Range)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		openingBalance, openingErr = v, err
		return nil
	})
	g.Go(func() error {
		v, err := s.entries.All(gctx, req.Query())
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		rows, entriesErr = v, err
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &View{Request: req}
	if openingErr != nil {
		openingBalance = decimal.Zero
		view.Notices = append(view.Notices, NoticeOpeningUnavailable)
	}
	if entriesErr != nil {
		rows = nil
		view.Notices = append(view.Notices, NoticeLedgerUnavailable)
	}

	if req.Scope.IsAll() && !openingBalance.IsZero() {
		s.logger.Warn("ignoring opening balance for all-accounts scope",
			zap.String("opening", openingBalance.String()))
	}
	view.Opening = ledger.EffectiveOpening(req.Scope, openingBalance)
	view.Entries = ledger.Calculate(rows, req.Scope, view.Opening)

	elapsed := time.Since(start)
	metrics.ObserveLoad(scopeLabel(req.Scope), elapsed)
	s.logger.Debug("ledger loaded",
		zap.Stringer("scope", req.Scope),
		zap.Int("entries", len(view.Entries)),
		zap.Int("notices", len(view.Notices)),
		zap.Duration("elapsed", elapsed))
	return view, nil
}

func scopeLabel(s model.Scope) string {
	if s.IsAll() {
		return "all"
	}
	return "single"
}

// View is a fully computed ledger for one request. Entries are in canonical
// order and carry balances computed over the complete filtered set.
type View struct {
	Request Request
	Opening decimal.Decimal
	Entries []model.AnnotatedEntry
	Notices []Notice
}

// Page projects the view to one on-screen page.
func (v *View) Page(w report.Window) report.Page {
	return report.PageView(v.Entries, w)
}

// Print projects the view to the full printable document.
func (v *View) Print(h report.Header) report.PrintDocument {
	if h.RangeLabel == "" {
		h.RangeLabel = v.Request.Range.Label()
	}
	return report.PrintView(v.Entries, v.Opening, h)
}

// Closing returns the balance after the last entry.
func (v *View) Closing() decimal.Decimal {
	return ledger.Closing(v.Entries, v.Request.Scope, v.Opening)
}
