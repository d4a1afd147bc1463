package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"github.com/egaotan/solana-router/aggregator"
	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/config"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/pumpfun"
	"github.com/egaotan/solana-router/raydium"
	"github.com/egaotan/solana-router/saber"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/store"
	"github.com/egaotan/solana-router/swap"
	"github.com/egaotan/solana-router/tokenswap"
	"github.com/egaotan/solana-router/utils"
)

var ErrSandboxDisabled = errors.New("sandbox is disabled")

// Router serves swaps against the sandbox ledger and balance reads against
// either the ledger or the configured node.
type Router struct {
	ctx          context.Context
	cancel       context.CancelFunc
	config       *config.Config
	log          *zap.Logger
	reader       backend.AccountReader
	ledger       *backend.Ledger
	token        *spltoken.Program
	orchestrator *aggregator.Orchestrator
	defaultMode  aggregator.Mode
	sandbox      *Sandbox
	store        *store.Store
	metrics      *Metrics
	httpServer   *http.Server

	// ledger Atomic calls must not overlap
	swapMu sync.Mutex
}

func NewRouter(ctx context.Context, cfg *config.Config) (*Router, error) {
	logger, err := utils.NewLog(cfg.Log.Path, config.RouterLog, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	mode, err := aggregator.ParseMode(cfg.Router.DefaultMode)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Router{
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		log:         logger,
		defaultMode: mode,
		metrics:     NewMetrics(),
	}

	dao, err := store.NewDao(cfg.Database.Driver, cfg.Database.DSN, gormlogger.Warn)
	if err != nil {
		cancel()
		return nil, err
	}
	r.store = store.NewStore(ctx, dao, logger.Named(config.StoreLog))

	if !cfg.Sandbox.Enabled {
		r.reader = backend.NewBackend(ctx, cfg.Node.Rpc, logger)
		r.token = spltoken.NewProgram(r.reader, logger)
		return r, nil
	}
	if err := r.initSandbox(); err != nil {
		cancel()
		return nil, multierr.Append(err, dao.Close())
	}
	return r, nil
}

func (r *Router) initSandbox() error {
	cfg := r.config
	l := backend.NewLedger(r.log)
	registerProcessors(l, r.log)
	token := spltoken.NewProgram(l, r.log)
	registry, err := connector.NewRegistry(
		tokenswap.NewConnector(),
		saber.NewConnector(),
		raydium.NewConnector(),
		pumpfun.NewConnector(r.log),
	)
	if err != nil {
		return err
	}
	tob, err := aggregator.NewToB(l, token, cfg.Router.ProgramId, cfg.Router.CustodySeed, r.log)
	if err != nil {
		return fmt.Errorf("derive custody authority: %w", err)
	}
	distributor := swap.NewDistributor(registry, l, token, r.log)
	orchestrator := aggregator.NewOrchestrator(l, distributor, token, r.log, aggregator.NewToC(l, token, r.log), tob)
	orchestrator.AddObserver(r.store)
	orchestrator.AddSink(r.metrics)

	sandbox, err := seedSandbox(l, tob.Authority(), cfg.Sandbox.PayerFunding, cfg.Sandbox.PayerLamports)
	if err != nil {
		return err
	}
	// reads outside a swap must not see a route that may still roll back
	r.reader = l.Committed()
	r.ledger = l
	r.token = spltoken.NewProgram(r.reader, r.log)
	r.orchestrator = orchestrator
	r.sandbox = sandbox
	r.log.Info("sandbox seeded",
		zap.Stringer("payer", sandbox.Payer),
		zap.Stringer("custody_authority", sandbox.CustodyAuthority),
		zap.Int("venues", len(sandbox.Venues)),
	)
	return nil
}

// Swap runs one request against the sandbox ledger.
func (r *Router) Swap(req *aggregator.Request) (*aggregator.Result, error) {
	if r.orchestrator == nil {
		return nil, ErrSandboxDisabled
	}
	r.swapMu.Lock()
	defer r.swapMu.Unlock()
	start := time.Now()
	result, err := r.orchestrator.Swap(r.ctx, req)
	r.metrics.ObserveSwap(req.Mode, err, time.Since(start))
	return result, err
}

// Service starts the router and blocks until ctx is done or the HTTP server fails.
func (r *Router) Service() error {
	r.Start()
	g, ctx := errgroup.WithContext(r.ctx)
	g.Go(func() error {
		return r.serve()
	})
	g.Go(func() error {
		<-ctx.Done()
		return r.Stop()
	})
	return g.Wait()
}

func (r *Router) Start() {
	r.store.Start()
	r.httpServer = &http.Server{
		Addr:    r.config.App.Listen,
		Handler: r.Handler(),
	}
	r.log.Info("router has started", zap.String("listen", r.config.App.Listen), zap.Bool("sandbox", r.sandbox != nil))
}

func (r *Router) serve() error {
	r.log.Named(config.ServerLog).Info("start rpc server", zap.String("listen", r.config.App.Listen))
	if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.cancel()
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Stop shuts the HTTP server down, drains the store and closes the database.
func (r *Router) Stop() error {
	var err error
	if r.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.App.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, r.httpServer.Shutdown(ctx))
	}
	r.cancel()
	err = multierr.Append(err, r.store.Close())
	r.log.Info("router has stopped")
	_ = r.log.Sync()
	return err
}
