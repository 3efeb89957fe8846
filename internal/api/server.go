// Package api serves ledger views over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/metrics"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/opening"
	"github.com/cleared-dev/ledgerview/internal/reconcile"
)

// SessionHeader opts a request into last-issued-wins ordering per consumer.
const SessionHeader = "X-Session-ID"

// CatalogLoader lists selectable accounts.
type CatalogLoader interface {
	Load(ctx context.Context) (accounts.Listing, error)
}

// OpeningBalances reads and writes opening balances.
type OpeningBalances interface {
	Resolve(ctx context.Context, scope model.Scope, rng model.DateRange) (decimal.Decimal, error)
	FiscalYear(rng model.DateRange) int
	Write(ctx context.Context, req opening.WriteRequest) (model.OpeningBalanceVoucher, error)
}

// Config holds server dependencies and settings.
type Config struct {
	Addr        string
	Catalog     CatalogLoader
	Ledger      reconcile.Loader
	Opening     OpeningBalances
	Fiscal      config.FiscalConfig
	Print       config.PrintConfig
	PageSize    int
	SessionIdle time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// Server is the HTTP service.
type Server struct {
	cfg      Config
	sessions *reconcile.Sessions
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = 15 * time.Minute
	}
	return &Server{
		cfg:      cfg,
		sessions: reconcile.NewSessions(cfg.Ledger, cfg.SessionIdle),
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/accounts", s.listAccounts)
		r.Get("/ledger", s.getLedger)
		r.Get("/ledger/print", s.printLedger)
		r.Get("/opening-balance", s.getOpeningBalance)
		r.Post("/opening-balance", s.writeOpeningBalance)
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.Run(ctx, time.Minute)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("starting server", zap.String("addr", s.cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
