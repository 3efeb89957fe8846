package model

// AllAccountsID is the identifier of the synthetic "all accounts" selector.
// It is never persisted as an account.
const AllAccountsID = "ALL"

// Account is a node in the chart of accounts.
type Account struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"` // "" = top-level
}

// Label renders the account for headers and listings, e.g. "1010 Business Checking".
func (a Account) Label() string {
	switch {
	case a.Code == "":
		return a.Name
	case a.Name == "":
		return a.Code
	default:
		return a.Code + " " + a.Name
	}
}

// Selection is what a user picks from the catalog: one leaf account or the
// synthetic union of all accounts.
type Selection struct {
	all     bool
	account Account
}

// LeafSelection selects a single account.
func LeafSelection(a Account) Selection {
	return Selection{account: a}
}

// AllSelection selects every account at once.
func AllSelection() Selection {
	return Selection{all: true}
}

// IsAll reports whether the selection is the synthetic ALL entry.
func (s Selection) IsAll() bool { return s.all }

// Account returns the selected account. ok is false for ALL.
func (s Selection) Account() (Account, bool) {
	if s.all {
		return Account{}, false
	}
	return s.account, true
}

// ID returns the persisted form of the selection.
func (s Selection) ID() string {
	if s.all {
		return AllAccountsID
	}
	return s.account.ID
}

// Label renders the selection for headers.
func (s Selection) Label() string {
	if s.all {
		return "All accounts"
	}
	return s.account.Label()
}

// Scope converts the selection into an aggregation scope.
// includeDescendants is ignored for ALL.
func (s Selection) Scope(includeDescendants bool) Scope {
	if s.all {
		return AllAccounts()
	}
	return SingleAccount(s.account.ID, includeDescendants)
}
