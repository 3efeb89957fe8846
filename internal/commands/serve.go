package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/api"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve ledger views over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, opts, "api")
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := api.New(api.Config{
				Addr:        addr,
				Catalog:     a.catalog,
				Ledger:      a.ledger,
				Opening:     a.resolver,
				Fiscal:      a.cfg.Fiscal,
				Print:       a.cfg.Print,
				PageSize:    a.cfg.Ledger.PageSize,
				SessionIdle: a.cfg.Server.SessionIdle,
				Logger:      a.logger.Named("api"),
			})

			a.logger.Info("serving", zap.String("addr", addr), zap.String("source", a.cfg.Source.Kind))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
