package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/report"
)

func newPrintCommand(opts *globalOptions) *cobra.Command {
	var filters ledgerFlags
	var format, output string

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render the full ledger as a printable document or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "text" && format != "csv" {
				return fmt.Errorf("unknown format %q: want text or csv", format)
			}

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

			doc := view.Print(report.Header{
				Title:        a.cfg.Print.Title,
				AccountLabel: headerLabel(sel, filters.descendants),
				GeneratedAt:  time.Now(),
			})

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if format == "csv" {
				return report.WriteCSV(w, doc)
			}
			return report.WriteText(w, doc, report.Layout{
				LinesPerPage: a.cfg.Print.LinesPerPage,
				LeftMargin:   a.cfg.Print.LeftMargin,
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
