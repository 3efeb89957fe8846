package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// OpeningBalancesFile is the opening-balance table relative to the data root.
const OpeningBalancesFile = "opening-balances.csv"

const openingHeader = "account_id,fiscal_year,amount,branch_no,description"

// Store is a file-backed ledger source: one journal.csv per month under
// <root>/YYYY/MM/ plus a chart of accounts and an opening-balance table.
type Store struct {
	root  string
	chart *accounts.Chart
}

// NewStore creates a Store over root with the given chart.
func NewStore(root string, chart *accounts.Chart) *Store {
	return &Store{root: root, chart: chart}
}

// OpenStore loads the chart under root and returns a Store.
func OpenStore(root string) (*Store, error) {
	chart, err := accounts.LoadChart(root)
	if err != nil {
		return nil, err
	}
	return NewStore(root, chart), nil
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// Chart returns the store's chart of accounts.
func (s *Store) Chart() *accounts.Chart { return s.chart }

// Accounts lists accounts from the chart.
func (s *Store) Accounts(ctx context.Context, onlyLeaf bool, limit int) ([]model.Account, error) {
	return accounts.ChartSource{Chart: s.chart}.Accounts(ctx, onlyLeaf, limit)
}

// Append validates entries and appends them to their months' journal files.
// Entry ids already on disk are rejected, so re-importing an export fails.
func (s *Store) Append(entries []model.JournalEntry) error {
	existing, err := s.ReadAll()
	if err != nil {
		return err
	}
	posted := make(map[string]bool, len(existing))
	for _, e := range existing {
		posted[e.ID] = true
	}

	if verrs := ValidateEntries(entries, s.chart, posted); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	byMonth := make(map[string][]model.JournalEntry)
	var months []string
	for _, e := range entries {
		path := s.monthPath(e.Date.Year(), int(e.Date.Month()))
		if _, ok := byMonth[path]; !ok {
			months = append(months, path)
		}
		byMonth[path] = append(byMonth[path], e)
	}

	for _, path := range months {
		if err := appendToFile(path, byMonth[path]); err != nil {
			return err
		}
	}
	return nil
}

func appendToFile(path string, entries []model.JournalEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendEntries(f, entries); err != nil {
		return fmt.Errorf("appending entries: %w", err)
	}
	return nil
}

// ReadMonth reads all entries for a given year/month.
func (s *Store) ReadMonth(year, month int) ([]model.JournalEntry, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return entries, nil
}

// ReadAll reads every month's journal in path order.
func (s *Store) ReadAll() ([]model.JournalEntry, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	sort.Strings(paths)

	var all []model.JournalEntry
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening journal %s: %w", path, err)
		}
		entries, err := ReadEntries(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading journal %s: %w", path, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Query returns one page of entries matching q and the size of the whole
// filtered set. Entries come back in file order.
func (s *Store) Query(ctx context.Context, q model.EntryQuery) (model.EntryPage, error) {
	if err := q.Validate(); err != nil {
		return model.EntryPage{}, err
	}
	all, err := s.ReadAll()
	if err != nil {
		return model.EntryPage{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.EntryPage{}, err
	}

	var inScope map[string]bool
	if !q.Scope.IsAll() {
		inScope = s.chart.ScopeAccounts(q.Scope.AccountID(), q.Scope.IncludeDescendants())
	}

	var matched []model.JournalEntry
	for _, e := range all {
		if inScope != nil && !inScope[e.AccountID] {
			continue
		}
		if !q.Range.Contains(e.Date) {
			continue
		}
		if q.VoucherType != "" && e.VoucherType != q.VoucherType {
			continue
		}
		if acct, ok := s.chart.Get(e.AccountID); ok {
			e.AccountCode = acct.Code
			e.AccountName = acct.Name
		}
		matched = append(matched, e)
	}

	page := model.EntryPage{Total: len(matched)}
	start := q.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := min(start+q.PageSize, len(matched))
	page.Entries = matched[start:end]
	return page, nil
}

// OpeningBalance returns the stored opening balance of accountID for year,
// summed over its descendants when includeDescendants is set. Accounts with
// no stored row contribute zero.
func (s *Store) OpeningBalance(_ context.Context, accountID string, year int, includeDescendants bool) (decimal.Decimal, error) {
	rows, err := s.readOpening()
	if err != nil {
		return decimal.Zero, err
	}
	ids := s.chart.ScopeAccounts(accountID, includeDescendants)

	total := decimal.Zero
	for _, r := range rows {
		if r.year == year && ids[r.accountID] {
			total = total.Add(r.amount)
		}
	}
	return total, nil
}

// WriteOpeningBalance replaces the opening balance of the voucher's account
// for its fiscal year. Last write wins.
func (s *Store) WriteOpeningBalance(_ context.Context, v model.OpeningBalanceVoucher) error {
	if !s.chart.Exists(v.Line.AccountID) {
		return fmt.Errorf("unknown account %q", v.Line.AccountID)
	}
	rows, err := s.readOpening()
	if err != nil {
		return err
	}

	next := openingRow{
		accountID:   v.Line.AccountID,
		year:        v.FiscalYear,
		amount:      v.Line.Signed(),
		branchNo:    v.BranchNo,
		description: v.Line.Description,
	}
	replaced := false
	for i, r := range rows {
		if r.accountID == next.accountID && r.year == next.year {
			rows[i] = next
			replaced = true
		}
	}
	if !replaced {
		rows = append(rows, next)
	}
	return s.writeOpening(rows)
}

type openingRow struct {
	accountID   string
	year        int
	amount      decimal.Decimal
	branchNo    string
	description string
}

func (s *Store) openingPath() string {
	return filepath.Join(s.root, OpeningBalancesFile)
}

func (s *Store) readOpening() ([]openingRow, error) {
	f, err := os.Open(s.openingPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", OpeningBalancesFile, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 5
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", OpeningBalancesFile, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]openingRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		year, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing fiscal_year %q: %w", i+2, rec[1], err)
		}
		amount, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[2], err)
		}
		rows = append(rows, openingRow{
			accountID:   rec[0],
			year:        year,
			amount:      amount,
			branchNo:    rec[3],
			description: rec[4],
		})
	}
	return rows, nil
}

func (s *Store) writeOpening(rows []openingRow) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp := s.openingPath() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", OpeningBalancesFile, err)
	}

	cw := csv.NewWriter(f)
	_ = cw.Write(strings.Split(openingHeader, ","))
	for _, r := range rows {
		_ = cw.Write([]string{r.accountID, strconv.Itoa(r.year), r.amount.StringFixed(2), r.branchNo, r.description})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", OpeningBalancesFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", OpeningBalancesFile, err)
	}
	if err := os.Rename(tmp, s.openingPath()); err != nil {
		return fmt.Errorf("replacing %s: %w", OpeningBalancesFile, err)
	}
	return nil
}

func (s *Store) monthPath(year, month int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
