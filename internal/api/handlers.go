package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/id"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/opening"
	"github.com/cleared-dev/ledgerview/internal/reconcile"
	"github.com/cleared-dev/ledgerview/internal/report"
)

type selectionJSON struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Code     string `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	All      bool   `json:"all,omitempty"`
}

type accountsResponse struct {
	Accounts []selectionJSON    `json:"accounts"`
	Selected string             `json:"selected,omitempty"`
	Notices  []reconcile.Notice `json:"notices"`
}

var noticeAccountsUnavailable = reconcile.Notice{
	Code:    "ACCOUNTS_UNAVAILABLE",
	Message: accounts.ErrCatalogUnavailable.Error(),
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	resp := accountsResponse{Accounts: []selectionJSON{}, Notices: []reconcile.Notice{}}

	listing, err := s.cfg.Catalog.Load(r.Context())
	if err != nil {
		resp.Notices = append(resp.Notices, noticeAccountsUnavailable)
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	for _, sel := range listing.Selections {
		item := selectionJSON{ID: sel.ID(), Label: sel.Label(), All: sel.IsAll()}
		if a, ok := sel.Account(); ok {
			item.Code, item.Name, item.ParentID = a.Code, a.Name, a.ParentID
		}
		resp.Accounts = append(resp.Accounts, item)
	}
	resp.Selected = listing.Selected.ID()
	s.writeJSON(w, http.StatusOK, resp)
}

type rowJSON struct {
	RowKey         string `json:"rowKey"`
	ID             string `json:"id"`
	Date           string `json:"date"`
	VoucherNo      string `json:"voucherNo"`
	VoucherType    string `json:"voucherType,omitempty"`
	AccountID      string `json:"accountId"`
	AccountCode    string `json:"accountCode,omitempty"`
	AccountName    string `json:"accountName,omitempty"`
	Description    string `json:"description"`
	Reference      string `json:"reference"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	RunningBalance string `json:"runningBalance"`
}

func toRow(e model.AnnotatedEntry) rowJSON {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(model.DateFormat)
	}
	return rowJSON{
		RowKey:         e.RowKey,
		ID:             e.ID,
		Date:           date,
		VoucherNo:      e.VoucherNo,
		VoucherType:    e.VoucherType,
		AccountID:      e.AccountID,
		AccountCode:    e.AccountCode,
		AccountName:    e.AccountName,
		Description:    e.Description,
		Reference:      e.Reference,
		Debit:          money(e.Debit),
		Credit:         money(e.Credit),
		RunningBalance: money(e.RunningBalance),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type totalsJSON struct {
	Debit      string `json:"debit"`
	Credit     string `json:"credit"`
	Difference string `json:"difference"`
}

func toTotals(t report.Totals) totalsJSON {
	return totalsJSON{Debit: money(t.Debit), Credit: money(t.Credit), Difference: money(t.Difference)}
}

type ledgerResponse struct {
	Scope      string             `json:"scope"`
	Opening    string             `json:"openingBalance"`
	Closing    string             `json:"closingBalance"`
	Rows       []rowJSON          `json:"rows"`
	PageTotals totalsJSON         `json:"pageTotals"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalRows  int                `json:"totalRows"`
	TotalPages int                `json:"totalPages"`
	Notices    []reconcile.Notice `json:"notices"`
}

func parseFilters(r *http.Request) reconcile.Filters {
	q := r.URL.Query()
	return reconcile.Filters{
		AccountID:          q.Get("accountId"),
		IncludeDescendants: queryBool(r, "includeDescendants"),
		From:               q.Get("from"),
		To:                 q.Get("to"),
		VoucherType:        q.Get("voucherType"),
	}
}

// loadView builds the view for the request's filters. It writes the error
// response itself and returns nil when the view could not be built.
func (s *Server) loadView(w http.ResponseWriter, r *http.Request) *reconcile.View {
	req, err := reconcile.ParseRequest(parseFilters(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return nil
	}

	var view *reconcile.View
	if sessionID := strings.TrimSpace(r.Header.Get(SessionHeader)); sessionID != "" {
		view, err = s.sessions.Get(sessionID).Refresh(r.Context(), req)
	} else {
		view, err = s.cfg.Ledger.Load(r.Context(), req)
	}
	switch {
	case err == nil:
		return view
	case errors.Is(err, reconcile.ErrStale):
		s.writeError(w, http.StatusConflict, "STALE_REQUEST", "superseded by a newer request")
	case errors.Is(err, model.ErrInvalidQuery):
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case r.Context().Err() != nil:
		// Client went away; nothing to write.
	default:
		s.logger.Error("ledger load failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return nil
}

func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	size, err := queryInt(r, "pageSize", s.cfg.PageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	view := s.loadView(w, r)
	if view == nil {
		return
	}

	p := view.Page(report.Window{Page: page, PageSize: size})
	resp := ledgerResponse{
		Scope:      view.Request.Scope.String(),
		Opening:    money(view.Opening),
		Closing:    money(view.Closing()),
		Rows:       make([]rowJSON, 0, len(p.Rows)),
		PageTotals: toTotals(p.Totals),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalRows:  p.TotalRows,
		TotalPages: p.TotalPages,
		Notices:    view.Notices,
	}
	if resp.Notices == nil {
		resp.Notices = []reconcile.Notice{}
	}
	for _, row := range p.Rows {
		resp.Rows = append(resp.Rows, toRow(row))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) printLedger(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "csv" {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("unknown format %q", format))
		return
	}

	view := s.loadView(w, r)
	if view == nil {
		return
	}
	doc := view.Print(report.Header{
		Title:        s.cfg.Print.Title,
		AccountLabel: s.accountLabel(r, view.Request.Scope),
		GeneratedAt:  s.now(),
	})

	for _, n := range view.Notices {
		w.Header().Add("X-Ledger-Notice", n.Message)
	}
	var err error
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
		err = report.WriteCSV(w, doc)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = report.WriteText(w, doc, report.Layout{
			LinesPerPage: s.cfg.Print.LinesPerPage,
			LeftMargin:   s.cfg.Print.LeftMargin,
		})
	}
	if err != nil {
		s.logger.Warn("writing print document", zap.Error(err))
	}
}

// accountLabel resolves a human label for the scope, falling back to the id
// when the catalog is unavailable.
func (s *Server) accountLabel(r *http.Request, scope model.Scope) string {
	if scope.IsAll() {
		return model.AllSelection().Label()
	}
	label := scope.AccountID()
	if listing, err := s.cfg.Catalog.Load(r.Context()); err == nil {
		if sel, ok := listing.Find(scope.AccountID()); ok {
			label = sel.Label()
		}
	}
	if scope.IncludeDescendants() {
		label += " (with sub-accounts)"
	}
	return label
}

type openingResponse struct {
	AccountID          string             `json:"accountId"`
	Year               int                `json:"year"`
	IncludeDescendants bool               `json:"includeDescendants"`
	OpeningBalance     string             `json:"openingBalance"`
	Notices            []reconcile.Notice `json:"notices"`
}

func (s *Server) getOpeningBalance(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("accountId"))
	if accountID == "" || strings.EqualFold(accountID, model.AllAccountsID) {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "accountId must name a single account")
		return
	}
	scope := model.SingleAccount(accountID, queryBool(r, "includeDescendants"))

	year, err := queryInt(r, "year", s.cfg.Opening.FiscalYear(model.DateRange{}))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	rng := model.DateRange{From: s.cfg.Fiscal.Start(year)}

	resp := openingResponse{
		AccountID:          accountID,
		Year:               year,
		IncludeDescendants: scope.IncludeDescendants(),
		Notices:            []reconcile.Notice{},
	}
	amount, err := s.cfg.Opening.Resolve(r.Context(), scope, rng)
	if err != nil {
		resp.Notices = append(resp.Notices, reconcile.NoticeOpeningUnavailable)
	}
	resp.OpeningBalance = money(amount)
	s.writeJSON(w, http.StatusOK, resp)
}

type openingWriteRequest struct {
	AccountID          string          `json:"accountId"`
	IncludeDescendants bool            `json:"includeDescendants"`
	Year               int             `json:"year"`
	Side               string          `json:"side"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
}

type voucherJSON struct {
	Date        string `json:"date"`
	FiscalYear  int    `json:"fiscalYear"`
	BranchNo    string `json:"branchNo"`
	VoucherNo   string `json:"voucherNo"`
	AccountID   string `json:"accountId"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description"`
}

func (s *Server) writeOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var body openingWriteRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	req := opening.WriteRequest{
		Scope:       model.SingleAccount(strings.TrimSpace(body.AccountID), body.IncludeDescendants),
		Year:        body.Year,
		Side:        model.Side(strings.ToLower(body.Side)),
		Amount:      body.Amount,
		Description: body.Description,
	}
	if req.Year == 0 {
		req.Year = s.cfg.Opening.FiscalYear(model.DateRange{})
	}

	v, err := s.cfg.Opening.Write(r.Context(), req)
	if err != nil {
		var verr *opening.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
			return
		}
		s.logger.Error("opening balance write failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "WRITE_FAILED", "could not save opening balance")
		return
	}

	s.writeJSON(w, http.StatusCreated, voucherJSON{
		Date:        v.Date.Format(model.DateFormat),
		FiscalYear:  v.FiscalYear,
		BranchNo:    v.BranchNo,
		VoucherNo:   id.OpeningVoucherNo(v.FiscalYear, v.Line.AccountID),
		AccountID:   v.Line.AccountID,
		Debit:       money(v.Line.Debit),
		Credit:      money(v.Line.Credit),
		Description: v.Line.Description,
	})
}
