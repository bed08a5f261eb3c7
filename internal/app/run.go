package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-sniper/internal/backoff"
	"solana-sniper/internal/discovery"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/execution"
	"solana-sniper/internal/gate"
	"solana-sniper/internal/market"
	"solana-sniper/internal/position"
	"solana-sniper/internal/queue"
	"solana-sniper/internal/revival"
	"solana-sniper/internal/scoring"
	"solana-sniper/internal/solana"
)

const shutdownTimeout = 10 * time.Second

// Run executes the long-running sniper service until SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := a.Config

	st, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	q, err := queue.New(queue.Options{Config: cfg.Queue, Ledger: st.ledger})
	if err != nil {
		return err
	}
	n, err := q.Load(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info().Int("ledgered", n).Msg("ledger loaded")

	g, err := gate.New(cfg.Gate)
	if err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	policy, err := backoff.New(cfg.Backoff, g.Schedule())
	if err != nil {
		return err
	}

	var dexOpts []market.Option
	if cfg.Solana.RPCURL != "" {
		rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
			solana.WithTimeout(cfg.Solana.RPCTimeout),
			solana.WithMaxRetries(cfg.Solana.RPCMaxRetries),
		)
		slot, err := rpc.GetSlot(ctx)
		if err != nil {
			return fmt.Errorf("solana rpc: %w", err)
		}
		a.Logger.Info().Int64("slot", slot).Msg("solana rpc reachable")
		dexOpts = append(dexOpts, market.WithHolderSource(market.NewRPCHolderSource(rpc, cfg.Solana.Holders)))
	} else {
		a.Logger.Warn().Msg("solana.rpc_url not configured; holder counts unavailable")
	}
	dex := market.NewDexScreener(cfg.Market.Config, a.Logger, dexOpts...)

	scorer := a.newScorer()
	paper, err := execution.NewPaperExecutor(dex, cfg.Execution)
	if err != nil {
		return err
	}

	persister := engine.NewAsyncPersister(engine.PersisterOptions{
		Config:    cfg.Storage.Persister,
		Snapshots: st.snapshots,
		Positions: st.positions,
		Verdicts:  st.verdicts,
		Logger:    a.Logger,
	})

	var feed *discovery.LaunchFeed
	if cfg.Solana.WSURL != "" {
		ws := solana.NewWSClient(cfg.Solana.WSURL, cfg.Solana.WS, a.Logger)
		feed = discovery.NewLaunchFeed(ws, cfg.Solana.Feed, a.Logger)
	}

	opts := engine.Options{
		Config:    cfg.Engine,
		Gate:      g,
		Backoff:   policy,
		Queue:     q,
		Monitor:   position.NewMonitor(cfg.Exit),
		Revival:   revival.New(cfg.Revival, dex, a.Logger),
		Fetcher:   dex,
		Scorer:    scorer,
		Executor:  paper,
		Persister: persister,
		Logger:    a.Logger,
	}
	if cfg.Market.Discover {
		opts.Discoverer = dex
	}
	if feed != nil {
		opts.Feed = feed.Events()
	}

	eng, err := engine.New(opts)
	if err != nil {
		return err
	}

	open, err := st.positions.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}
	for _, p := range open {
		paper.Restore(p.Address, p.Qty)
	}
	if restored := eng.Restore(open); restored > 0 {
		a.Logger.Info().Int("positions", restored).Msg("open positions restored")
	}

	// The persister outlives the engine so the last tick's records are flushed.
	persistCtx, stopPersister := context.WithCancel(context.WithoutCancel(ctx))
	persistDone := make(chan error, 1)
	go func() { persistDone <- persister.Run(persistCtx) }()

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return eng.Run(gctx)
	})

	if feed != nil {
		grp.Go(func() error {
			if err := feed.Run(gctx); err != nil {
				return fmt.Errorf("launch feed: %w", err)
			}
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           NewStatusHandler(eng, time.Now),
			ReadHeaderTimeout: 5 * time.Second,
		}
		grp.Go(func() error {
			a.Logger.Info().Str("addr", srv.Addr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	a.Logger.Info().
		Bool("launch_feed", feed != nil).
		Bool("discover", cfg.Market.Discover).
		Bool("durable_positions", st.durable).
		Msg("starting sniper")

	err = grp.Wait()

	stopPersister()
	<-persistDone

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("sniper terminated with error")
		return err
	}

	a.Logger.Info().Msg("sniper stopped")
	return nil
}

func (a *App) newScorer() engine.Scorer {
	sc := a.Config.Scoring
	if sc.Endpoint == "" {
		a.Logger.Warn().Float64("probability", sc.Static).Msg("scoring.endpoint not configured; using static scorer")
		return scoring.StaticScorer{Probability: sc.Static}
	}
	return scoring.NewHTTPScorer(sc.Endpoint, sc.Timeout)
}
