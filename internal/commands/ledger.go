package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/report"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	var filters ledgerFlags
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show one page of the ledger, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			req, sel, err := a.request(ctx, filters, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			view, err := a.ledger.Load(ctx, req)
			if err != nil {
				return err
			}
			printNotices(cmd.ErrOrStderr(), view.Notices)

			if pageSize <= 0 {
				pageSize = a.cfg.Ledger.PageSize
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", headerLabel(sel, filters.descendants), req.Range.Label())
			fmt.Fprintf(out, "Opening %s  Closing %s\n\n", view.Opening.StringFixed(2), view.Closing().StringFixed(2))
			return report.WriteTable(out, view.Page(report.Window{Page: page, PageSize: pageSize}))
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number, 1 is the newest")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")

	return cmd
}
