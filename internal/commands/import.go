package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/gitops"
	"github.com/cleared-dev/ledgerview/internal/journal"
	"github.com/cleared-dev/ledgerview/internal/model"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <journal.csv>...",
		Short: "Append posted journal lines to a file-backed ledger",
		Long: "Reads journal CSV exports (" + journal.Header + ")\n" +
			"and appends them to the month files of the file source.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			if a.files == nil {
				return errors.New("import needs the file source; other sources are read-only")
			}

			var all []model.JournalEntry
			for _, path := range args {
				entries, err := readJournalFile(path)
				if err != nil {
					return err
				}
				all = append(all, entries...)
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import")
				return nil
			}

			if err := a.files.Append(all); err != nil {
				return err
			}

			if a.cfg.Git.AutoCommit && gitops.IsRepo(a.files.Root()) {
				msg := fmt.Sprintf("import: %d journal lines from %d file(s)", len(all), len(args))
				if _, err := gitops.CommitAll(ctx, a.files.Root(), msg, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail); err != nil {
					return fmt.Errorf("committing import: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d journal lines\n", len(all))
			return nil
		},
	}
	return cmd
}

func readJournalFile(path string) ([]model.JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entries, err := journal.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
