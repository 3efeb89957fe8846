package accounts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/metrics"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// ErrCatalogUnavailable is wrapped when the account list could not be loaded.
var ErrCatalogUnavailable = errors.New("could not load accounts")

// DefaultLimit bounds how many leaf accounts the catalog asks for.
const DefaultLimit = 1000

// PreferenceKey is the preference key holding the last-selected account id.
const PreferenceKey = "ledger.last_account"

// Source lists accounts from a backing store.
type Source interface {
	Accounts(ctx context.Context, onlyLeaf bool, limit int) ([]model.Account, error)
}

// PreferenceStore persists small user preferences across sessions.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Listing is a loaded catalog: the ALL selector followed by leaf accounts.
type Listing struct {
	Selections []model.Selection
	Selected   model.Selection
}

// Available reports whether a selection can be made. An empty listing means
// the catalog failed to load.
func (l Listing) Available() bool {
	return len(l.Selections) > 0
}

// Find returns the selection with the given id ("ALL" for all accounts).
func (l Listing) Find(id string) (model.Selection, bool) {
	for _, s := range l.Selections {
		if s.ID() == id {
			return s, true
		}
	}
	return model.Selection{}, false
}

// Catalog loads selectable accounts and remembers the last choice.
type Catalog struct {
	source Source
	prefs  PreferenceStore
	limit  int
	logger *zap.Logger
}

// NewCatalog creates a Catalog. A limit <= 0 uses DefaultLimit.
func NewCatalog(source Source, prefs PreferenceStore, limit int, logger *zap.Logger) *Catalog {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{source: source, prefs: prefs, limit: limit, logger: logger}
}

// Load fetches leaf accounts and prepends the ALL selector. On failure it
// returns an empty Listing and an error wrapping ErrCatalogUnavailable;
// callers treat that as "selection unavailable", not as fatal.
func (c *Catalog) Load(ctx context.Context) (Listing, error) {
	accts, err := c.source.Accounts(ctx, true, c.limit)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			metrics.RecordFetchFailure("accounts")
		}
		c.logger.Warn("account catalog load failed", zap.Error(err))
		return Listing{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if len(accts) > c.limit {
		accts = accts[:c.limit]
	}

	listing := Listing{
		Selections: make([]model.Selection, 0, len(accts)+1),
		Selected:   model.AllSelection(),
	}
	listing.Selections = append(listing.Selections, model.AllSelection())
	for _, a := range accts {
		if a.ID == "" || a.ID == model.AllAccountsID {
			continue
		}
		listing.Selections = append(listing.Selections, model.LeafSelection(a))
	}

	if c.prefs != nil {
		if last, ok := c.prefs.Get(PreferenceKey); ok {
			if sel, found := listing.Find(last); found {
				listing.Selected = sel
			} else {
				c.logger.Debug("last selected account not in catalog, using ALL", zap.String("account_id", last))
			}
		}
	}
	return listing, nil
}

// Select remembers sel as the last-selected account.
func (c *Catalog) Select(sel model.Selection) error {
	if c.prefs == nil {
		return nil
	}
	if err := c.prefs.Set(PreferenceKey, sel.ID()); err != nil {
		return fmt.Errorf("saving account preference: %w", err)
	}
	return nil
}

// ChartSource adapts a Chart into a Source.
type ChartSource struct {
	Chart *Chart
}

// Accounts returns the chart's accounts, leaves only when onlyLeaf is set.
func (s ChartSource) Accounts(_ context.Context, onlyLeaf bool, limit int) ([]model.Account, error) {
	accts := s.Chart.All()
	if onlyLeaf {
		accts = s.Chart.Leaves()
	}
	if limit > 0 && len(accts) > limit {
		accts = accts[:limit]
	}
	return accts, nil
}
