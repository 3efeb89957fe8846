package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// ChartFile is the chart-of-accounts path relative to a data root.
const ChartFile = "accounts/chart-of-accounts.csv"

// Chart provides in-memory lookup over the account tree.
type Chart struct {
	accounts []model.Account
	byID     map[string]model.Account
	children map[string][]string
}

// NewChart creates a Chart from a slice of accounts.
func NewChart(accounts []model.Account) *Chart {
	byID := make(map[string]model.Account, len(accounts))
	children := make(map[string][]string)
	for _, a := range accounts {
		byID[a.ID] = a
		if a.ParentID != "" {
			children[a.ParentID] = append(children[a.ParentID], a.ID)
		}
	}
	for _, ids := range children {
		sort.Strings(ids)
	}
	return &Chart{accounts: accounts, byID: byID, children: children}
}

// LoadChart reads chart-of-accounts.csv under root.
func LoadChart(root string) (*Chart, error) {
	f, err := os.Open(filepath.Join(root, ChartFile))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewChart(accts), nil
}

// Save writes the chart to accounts/chart-of-accounts.csv under root.
func (c *Chart) Save(root string) error {
	path := filepath.Join(root, ChartFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, c.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}

// All returns all accounts in file order.
func (c *Chart) All() []model.Account {
	return c.accounts
}

// Get returns an account by ID.
func (c *Chart) Get(id string) (model.Account, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (c *Chart) Exists(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// IsLeaf reports whether id has no children.
func (c *Chart) IsLeaf(id string) bool {
	return len(c.children[id]) == 0
}

// Leaves returns the analytic accounts, the ones postings land on.
func (c *Chart) Leaves() []model.Account {
	var out []model.Account
	for _, a := range c.accounts {
		if c.IsLeaf(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// Descendants returns id followed by every account below it, breadth-first.
// Unknown ids yield just the id itself.
func (c *Chart) Descendants(id string) []string {
	out := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, child := range c.children[out[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}

// ScopeAccounts returns the set of account ids a single-account scope covers.
func (c *Chart) ScopeAccounts(accountID string, includeDescendants bool) map[string]bool {
	ids := []string{accountID}
	if includeDescendants {
		ids = c.Descendants(accountID)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
