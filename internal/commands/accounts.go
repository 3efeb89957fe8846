package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List selectable accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			listing, err := a.catalog.Load(cmd.Context())
			if err != nil {
				// An empty catalog is not fatal.
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err.Error())
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tACCOUNT")
			for _, sel := range listing.Selections {
				mark := ""
				if sel.ID() == listing.Selected.ID() {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, sel.ID(), sel.Label())
			}
			return tw.Flush()
		},
	}
}
