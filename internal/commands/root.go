// Package commands wires the ledgerview CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/buildinfo"
)

// DefaultConfigFile is the project configuration file name.
const DefaultConfigFile = "ledgerview.yaml"

type globalOptions struct {
	configPath string
	envFile    string
	logMode    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "ledgerview",
		Short:   "General ledger running-balance reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", DefaultConfigFile, "path to the project configuration")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with LEDGERVIEW_* overrides")
	flags.StringVar(&opts.logMode, "log-mode", "", "logger mode: debug, production or off (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(opts),
		newLedgerCommand(opts),
		newPrintCommand(opts),
		newOpeningBalanceCommand(opts),
		newImportCommand(opts),
		newMigrateCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
