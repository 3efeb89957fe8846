package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/auditlog"
	"github.com/cleared-dev/ledgerview/internal/client"
	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/entries"
	"github.com/cleared-dev/ledgerview/internal/gitops"
	"github.com/cleared-dev/ledgerview/internal/journal"
	"github.com/cleared-dev/ledgerview/internal/logging"
	"github.com/cleared-dev/ledgerview/internal/opening"
	"github.com/cleared-dev/ledgerview/internal/prefs"
	"github.com/cleared-dev/ledgerview/internal/reconcile"
	"github.com/cleared-dev/ledgerview/internal/sqlstore"
)

// source is everything a ledger backend provides.
type source interface {
	accounts.Source
	entries.Source
	opening.Store
}

// app holds the wired components for one command invocation.
type app struct {
	cfg      *config.Config
	root     string // directory holding the config file
	logger   *zap.Logger
	source   source
	files    *journal.Store  // set for the file source
	sql      *sqlstore.Store // set for the postgres source
	catalog  *accounts.Catalog
	fetcher  *entries.Fetcher
	resolver *opening.Resolver
	ledger   *reconcile.Service
}

// loadApp reads the configuration and wires every component. actor names
// who performs opening-balance writes in the audit log.
func loadApp(ctx context.Context, opts *globalOptions, actor string) (*app, error) {
	configPath, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	root := filepath.Dir(configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	envFile := opts.envFile
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(root, envFile)
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if opts.logMode != "" {
		cfg.Log.Mode = opts.logMode
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, root: root, logger: logger}
	if err := a.openSource(ctx); err != nil {
		return nil, err
	}

	prefPath := cfg.Ledger.Preferences
	if !filepath.IsAbs(prefPath) {
		prefPath = filepath.Join(root, prefPath)
	}
	prefStore, err := prefs.Open(prefPath)
	if err != nil {
		return nil, err
	}

	a.catalog = accounts.NewCatalog(a.source, prefStore, cfg.Ledger.AccountLimit, logger.Named("catalog"))
	a.fetcher = entries.NewFetcher(a.source, cfg.Ledger.FetchPageSize, cfg.Ledger.MaxPages, logger.Named("entries"))

	resolverOpts := []opening.Option{
		opening.WithLogger(logger.Named("opening")),
		opening.WithWriteHook(auditlog.Hook(root, actor, cfg.Source.Kind, nil)),
	}
	if a.files != nil && cfg.Git.AutoCommit {
		resolverOpts = append(resolverOpts,
			opening.WithWriteHook(gitops.CommitHook(a.files.Root(), cfg.Git.AuthorName, cfg.Git.AuthorEmail)))
	}
	a.resolver = opening.NewResolver(a.source, cfg.Fiscal, cfg.Business.BranchNo, resolverOpts...)
	a.ledger = reconcile.NewService(a.resolver, a.fetcher, logger.Named("reconcile"))
	return a, nil
}

func (a *app) openSource(ctx context.Context) error {
	switch a.cfg.Source.Kind {
	case config.SourceHTTP:
		c, err := client.New(client.Config{
			BaseURL: a.cfg.Source.APIURL,
			Token:   a.cfg.Source.APIToken,
			Timeout: a.cfg.Source.Timeout,
			Logger:  a.logger.Named("client"),
		})
		if err != nil {
			return err
		}
		a.source = c
	case config.SourceFile:
		dir := a.cfg.Source.DataDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(a.root, dir)
		}
		store, err := journal.OpenStore(dir)
		if err != nil {
			return fmt.Errorf("opening file source: %w", err)
		}
		a.files = store
		a.source = store
	case config.SourcePostgres:
		connectCtx := ctx
		if a.cfg.Source.Timeout > 0 {
			var cancel context.CancelFunc
			connectCtx, cancel = context.WithTimeout(ctx, a.cfg.Source.Timeout)
			defer cancel()
		}
		store, err := sqlstore.Open(connectCtx, a.cfg.Source.DSN, a.logger.Named("sqlstore"))
		if err != nil {
			return err
		}
		a.sql = store
		a.source = store
	default:
		return fmt.Errorf("unknown source kind %q", a.cfg.Source.Kind)
	}
	return nil
}

// Close releases the source and flushes the logger.
func (a *app) Close() error {
	var errs []error
	if a.sql != nil {
		errs = append(errs, a.sql.Close())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
