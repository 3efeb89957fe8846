package accounts

import "github.com/cleared-dev/ledgerview/internal/model"

// DefaultChart returns the starter chart of accounts written by init.
// Group accounts carry children; only leaves take postings.
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: "1000", Code: "1000", Name: "Assets"},
		{ID: "1010", Code: "1010", Name: "Cash on Hand", ParentID: "1000"},
		{ID: "1020", Code: "1020", Name: "Bank", ParentID: "1000"},
		{ID: "1030", Code: "1030", Name: "Rider Float", ParentID: "1000"},
		{ID: "2000", Code: "2000", Name: "Liabilities"},
		{ID: "2010", Code: "2010", Name: "Vendor Payables", ParentID: "2000"},
		{ID: "2020", Code: "2020", Name: "Rider Payables", ParentID: "2000"},
		{ID: "3000", Code: "3000", Name: "Equity"},
		{ID: "3010", Code: "3010", Name: "Owner's Equity", ParentID: "3000"},
		{ID: "4000", Code: "4000", Name: "Revenue"},
		{ID: "4010", Code: "4010", Name: "Delivery Fees", ParentID: "4000"},
		{ID: "4020", Code: "4020", Name: "Marketplace Commission", ParentID: "4000"},
		{ID: "5000", Code: "5000", Name: "Expenses"},
		{ID: "5010", Code: "5010", Name: "Rider Payouts", ParentID: "5000"},
		{ID: "5020", Code: "5020", Name: "Payment Processing", ParentID: "5000"},
	}
}
