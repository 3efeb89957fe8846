package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/reconcile"
)

// ledgerFlags are the filters shared by ledger and print.
type ledgerFlags struct {
	account     string
	descendants bool
	from        string
	to          string
	voucherType string
}

func (f *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.account, "account", "", "account id, or ALL (default: last selected)")
	cmd.Flags().BoolVar(&f.descendants, "descendants", false, "include sub-accounts of --account")
	cmd.Flags().StringVar(&f.from, "from", "", "first posting date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last posting date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.voucherType, "voucher-type", "", "only vouchers of this type")
}

// selection resolves the account to show. An explicit --account wins and is
// remembered; otherwise the catalog's remembered selection is used. When the
// catalog cannot be loaded an explicit account is still honoured and the
// default falls back to all accounts.
func (a *app) selection(ctx context.Context, account string, stderr io.Writer) (model.Selection, error) {
	listing, err := a.catalog.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "warning:", err.Error())
	}

	account = strings.TrimSpace(account)
	switch {
	case account == "":
		if !listing.Available() {
			return model.AllSelection(), nil
		}
		return listing.Selected, nil
	case strings.EqualFold(account, model.AllAccountsID):
		sel := model.AllSelection()
		return sel, a.remember(listing, sel)
	}

	if sel, ok := listing.Find(account); ok {
		return sel, a.remember(listing, sel)
	}
	// Parent accounts and accounts past the catalog limit are not listed but
	// are still valid ledger scopes.
	return model.LeafSelection(model.Account{ID: account}), nil
}

func (a *app) remember(listing accounts.Listing, sel model.Selection) error {
	if !listing.Available() {
		return nil
	}
	return a.catalog.Select(sel)
}

// request builds the ledger request for the flags.
func (a *app) request(ctx context.Context, f ledgerFlags, stderr io.Writer) (reconcile.Request, model.Selection, error) {
	sel, err := a.selection(ctx, f.account, stderr)
	if err != nil {
		return reconcile.Request{}, model.Selection{}, err
	}
	req, err := reconcile.ParseRequest(reconcile.Filters{
		AccountID:          sel.ID(),
		IncludeDescendants: f.descendants,
		From:               f.from,
		To:                 f.to,
		VoucherType:        f.voucherType,
	})
	if err != nil {
		return reconcile.Request{}, model.Selection{}, err
	}
	return req, sel, nil
}

func printNotices(w io.Writer, notices []reconcile.Notice) {
	for _, n := range notices {
		fmt.Fprintln(w, "warning:", n.Message)
	}
}

func headerLabel(sel model.Selection, descendants bool) string {
	label := sel.Label()
	if descendants && !sel.IsAll() {
		label += " (with sub-accounts)"
	}
	return label
}
