package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/opening"
)

func newOpeningBalanceCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "opening-balance",
		Aliases: []string{"ob"},
		Short:   "Read or set an account's fiscal-year opening balance",
	}
	cmd.AddCommand(newOpeningGetCommand(opts), newOpeningSetCommand(opts))
	return cmd
}

func newOpeningGetCommand(opts *globalOptions) *cobra.Command {
	var account string
	var descendants bool
	var year int

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the opening balance a ledger view starts from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			scope := scopeFor(account, descendants)
			var rng model.DateRange
			if year > 0 {
				rng.From = a.cfg.Fiscal.Start(year)
			}
			amount, err := a.resolver.Resolve(ctx, scope, rng)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s FY%d opening balance: %s\n",
				scope, a.resolver.FiscalYear(rng), amount.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account id, or ALL (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&descendants, "descendants", false, "sum the account's sub-accounts too")
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (default: current)")

	return cmd
}

func newOpeningSetCommand(opts *globalOptions) *cobra.Command {
	var account, side, amount, description string
	var year int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Record an opening balance as a single dated voucher line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			ctx := cmd.Context()
			a, err := loadApp(ctx, opts, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			if year <= 0 {
				year = a.resolver.FiscalYear(model.DateRange{})
			}
			v, err := a.resolver.Write(ctx, opening.WriteRequest{
				Scope:       scopeFor(account, false),
				Year:        year,
				Side:        model.Side(strings.ToLower(side)),
				Amount:      value,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s FY%d opening balance to %s (dated %s)\n",
				v.Line.AccountID, v.FiscalYear, v.Line.Signed().StringFixed(2), v.Date.Format(model.DateFormat))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (default: current)")
	cmd.Flags().StringVar(&side, "side", string(model.SideDebit), "debit or credit")
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount with at most 2 decimals (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&description, "description", "", "voucher line description")

	return cmd
}

func scopeFor(account string, descendants bool) model.Scope {
	if strings.EqualFold(strings.TrimSpace(account), model.AllAccountsID) {
		return model.AllAccounts()
	}
	return model.SingleAccount(strings.TrimSpace(account), descendants)
}
