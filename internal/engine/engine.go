package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/backoff"
	"solana-sniper/internal/discovery"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/gate"
	"solana-sniper/internal/idhash"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/position"
	"solana-sniper/internal/queue"
	"solana-sniper/internal/revival"
	"solana-sniper/internal/scoring"
)

// Verdict record sources.
const (
	sourceQueue   = "queue"
	sourceRevival = "revival"
)

// Engine owns the queue, position book and revival archive. Tick and Run
// must be called from a single goroutine.
type Engine struct {
	cfg Config

	gate     *gate.Gate
	backoff  *backoff.Policy
	queue    *queue.Queue
	monitor  *position.Monitor
	book     *position.Book
	revival  *revival.Rescanner
	fetcher  SnapshotFetcher
	scorer   Scorer
	executor Executor

	persister  Persister
	discoverer Discoverer
	feed       <-chan discovery.LaunchEvent

	// early-launch addresses; everything else is standard
	channels      map[string]domain.Channel
	lastDiscovery time.Time

	logger zerolog.Logger
	clock  func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// Options for creating Engine.
type Options struct {
	Config Config

	// Required components
	Gate     *gate.Gate
	Backoff  *backoff.Policy
	Queue    *queue.Queue
	Monitor  *position.Monitor
	Revival  *revival.Rescanner
	Fetcher  SnapshotFetcher
	Scorer   Scorer
	Executor Executor

	// Optional
	Persister  Persister
	Discoverer Discoverer
	Feed       <-chan discovery.LaunchEvent
	Logger     zerolog.Logger
	Clock      func() time.Time
}

// Stats is a point-in-time view of the loop, safe to read from other goroutines.
type Stats struct {
	Ticks         int64     `json:"ticks"`
	QueueDepth    int       `json:"queue_depth"`
	LedgerSize    int       `json:"ledger_size"`
	ArchiveSize   int       `json:"archive_size"`
	OpenPositions int       `json:"open_positions"`
	LastTick      time.Time `json:"last_tick"`
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Gate == nil:
		return nil, errors.New("engine: gate is required")
	case opts.Backoff == nil:
		return nil, errors.New("engine: backoff policy is required")
	case opts.Queue == nil:
		return nil, errors.New("engine: queue is required")
	case opts.Monitor == nil:
		return nil, errors.New("engine: position monitor is required")
	case opts.Revival == nil:
		return nil, errors.New("engine: revival rescanner is required")
	case opts.Fetcher == nil:
		return nil, errors.New("engine: snapshot fetcher is required")
	case opts.Scorer == nil:
		return nil, errors.New("engine: scorer is required")
	case opts.Executor == nil:
		return nil, errors.New("engine: executor is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	persister := opts.Persister
	if persister == nil {
		persister = NopPersister{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		cfg:        opts.Config,
		gate:       opts.Gate,
		backoff:    opts.Backoff,
		queue:      opts.Queue,
		monitor:    opts.Monitor,
		book:       position.NewBook(),
		revival:    opts.Revival,
		fetcher:    opts.Fetcher,
		scorer:     opts.Scorer,
		executor:   opts.Executor,
		persister:  persister,
		discoverer: opts.Discoverer,
		feed:       opts.Feed,
		channels:   make(map[string]domain.Channel),
		logger:     opts.Logger.With().Str("component", "engine").Logger(),
		clock:      clock,
	}, nil
}

// Restore puts previously opened positions back into the book.
func (e *Engine) Restore(positions []*domain.Position) int {
	n := 0
	for _, p := range positions {
		if p.Closed {
			continue
		}
		if err := e.book.Add(p); err != nil {
			e.logger.Warn().Str("address", p.Address).Str("position_id", p.ID).Msg("duplicate open position skipped")
			continue
		}
		n++
	}
	return n
}

// Admit queues address for evaluation. Returns false if it was ledgered or already queued.
func (e *Engine) Admit(ctx context.Context, address string, ch domain.Channel, source string) bool {
	if !e.queue.Admit(ctx, address) {
		return false
	}
	if ch.IsEarlyLaunch() {
		e.channels[address] = ch
	}
	observability.RecordAdmitted(source)
	return true
}

// Run ticks until ctx is done. A tick in progress is never cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	tickCtx := context.WithoutCancel(ctx)

	e.logger.Info().
		Dur("tick_interval", e.cfg.TickInterval).
		Int("batch_size", e.cfg.BatchSize).
		Msg("engine started")

	for {
		e.Tick(tickCtx)

		select {
		case <-ctx.Done():
			e.logger.Info().Int("open_positions", e.book.Len()).Msg("engine stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one loop iteration: discovery, feed drain, queue batch,
// open positions, revival.
func (e *Engine) Tick(ctx context.Context) {
	start := e.clock()

	e.discover(ctx)
	e.drainFeed(ctx)
	e.processQueue(ctx)
	e.observePositions(ctx)
	e.rescan(ctx)

	end := e.clock()
	e.updateStats(end)
	observability.RecordTick(end.Sub(start).Seconds(), end.Unix())
}

// Stats returns the loop state as of the last completed tick.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// OpenPositions returns open positions ordered by open time.
func (e *Engine) OpenPositions() []*domain.Position {
	return e.book.Open()
}

func (e *Engine) updateStats(now time.Time) {
	queueDepth, ledgerSize := e.queue.Len(), e.queue.LedgerLen()
	archiveSize, open := e.revival.Len(), e.book.Len()

	e.statsMu.Lock()
	e.stats.Ticks++
	e.stats.QueueDepth = queueDepth
	e.stats.LedgerSize = ledgerSize
	e.stats.ArchiveSize = archiveSize
	e.stats.OpenPositions = open
	e.stats.LastTick = now
	e.statsMu.Unlock()

	observability.UpdateSizes(queueDepth, ledgerSize, archiveSize, open)
}

// discover polls the periodic discoverer at most once per DiscoveryInterval.
func (e *Engine) discover(ctx context.Context) {
	if e.discoverer == nil {
		return
	}
	now := e.clock()
	if !e.lastDiscovery.IsZero() && now.Sub(e.lastDiscovery) < e.cfg.DiscoveryInterval {
		return
	}
	e.lastDiscovery = now

	start := time.Now()
	addrs, err := e.discoverer.Discover(ctx)
	observability.RecordExternalCall("discover", time.Since(start).Seconds(), err)
	if err != nil {
		e.logger.Warn().Err(err).Msg("discovery poll failed")
		return
	}

	admitted := 0
	for _, addr := range addrs {
		if e.Admit(ctx, addr, domain.ChannelStandard, "discovery") {
			admitted++
		}
	}
	if admitted > 0 {
		e.logger.Debug().Int("found", len(addrs)).Int("admitted", admitted).Msg("discovery poll")
	}
}

// drainFeed admits pending launch events without blocking.
func (e *Engine) drainFeed(ctx context.Context) {
	if e.feed == nil {
		return
	}
	for i := 0; e.cfg.FeedDrainLimit <= 0 || i < e.cfg.FeedDrainLimit; i++ {
		select {
		case ev, ok := <-e.feed:
			if !ok {
				e.logger.Warn().Msg("launch feed closed")
				e.feed = nil
				return
			}
			if e.Admit(ctx, ev.Mint, domain.ChannelEarlyLaunch, "launch_feed") {
				e.logger.Debug().Str("address", ev.Mint).Str("symbol", ev.Symbol).Msg("launch admitted")
			}
		default:
			return
		}
	}
}

// processQueue evaluates up to BatchSize ready entries in queue order.
func (e *Engine) processQueue(ctx context.Context) {
	for _, entry := range e.queue.Ready(e.cfg.BatchSize) {
		entry := entry
		if ok := e.isolate("candidate", entry.Address, func() { e.processEntry(ctx, entry) }); !ok {
			// release the lease so the address is not stuck
			e.deferEntry(ctx, entry, nil, domain.ReasonOther)
		}
	}
}

func (e *Engine) processEntry(ctx context.Context, entry queue.Entry) {
	c, err := e.fetch(ctx, entry.Address)
	if err != nil {
		e.logger.Debug().Err(err).Str("address", entry.Address).Int("attempts", entry.Attempts).Msg("snapshot unavailable")
		e.deferEntry(ctx, entry, nil, domain.ReasonOther)
		return
	}

	c.DiscoveredAt = entry.FirstSeen
	if ch, ok := e.channels[entry.Address]; ok {
		c.Channel = ch
	}

	now := e.clock()
	e.persister.PersistCandidate(c, now)

	v := e.gate.Evaluate(c, now)
	e.recordVerdict(c, v, entry.Attempts, sourceQueue, now)

	switch v.Kind {
	case domain.VerdictAccept:
		res := e.acquire(ctx, c)
		switch res.Kind {
		case domain.VerdictAccept:
			e.finalize(ctx, entry.Address, domain.ReasonAcquired)
		case domain.VerdictReject:
			e.finalize(ctx, entry.Address, res.Reason)
		case domain.VerdictDefer:
			e.deferEntry(ctx, entry, c, res.Reason)
		}

	case domain.VerdictReject:
		e.finalize(ctx, entry.Address, v.Reason)
		if domain.IsSoftReject(v.Reason) {
			e.revival.Archive(c, v.Reason, now)
		}

	case domain.VerdictDefer:
		e.deferEntry(ctx, entry, c, v.Reason)
	}
}

// deferEntry asks the backoff policy and requeues or finalizes.
func (e *Engine) deferEntry(ctx context.Context, entry queue.Entry, c *domain.Candidate, reason string) {
	now := e.clock()
	d := e.backoff.Decide(reason, entry.Attempts, entry.FirstSeen, c, now)
	if !d.Retry {
		e.logger.Debug().
			Str("address", entry.Address).
			Str("reason", reason).
			Int("attempts", entry.Attempts).
			Msg("retries exhausted")
		e.finalize(ctx, entry.Address, reason)
		return
	}

	finalized, err := e.queue.Requeue(ctx, entry.Address, reason, d.Delay)
	if err != nil {
		e.logger.Error().Err(err).Str("address", entry.Address).Msg("ledger write failed")
	}
	if finalized {
		e.forget(entry.Address)
		observability.RecordFinalized(reason)
	}
}

func (e *Engine) finalize(ctx context.Context, address, reason string) {
	if err := e.queue.Finalize(ctx, address, reason); err != nil {
		e.logger.Error().Err(err).Str("address", address).Str("reason", reason).Msg("ledger write failed")
	}
	e.forget(address)
	observability.RecordFinalized(reason)
}

func (e *Engine) forget(address string) {
	delete(e.channels, address)
}

// acquire hands an accepted candidate to the scorer and executor.
// The result is Accept when a position was opened, Reject when the address
// is done for good and Defer when it may be retried.
func (e *Engine) acquire(ctx context.Context, c *domain.Candidate) domain.Verdict {
	if e.book.Has(c.Address) {
		return domain.Reject(domain.ReasonAcquired)
	}
	if e.book.Len() >= e.cfg.MaxOpenPositions {
		return domain.Defer(domain.ReasonCapacity)
	}

	softScore := gate.Score(c, e.gate.Thresholds(c))
	observability.RecordSoftScore(softScore)

	start := time.Now()
	prob, err := e.scorer.ScoreProbability(ctx, scoring.Features(c, softScore))
	observability.RecordExternalCall("score", time.Since(start).Seconds(), err)
	if err != nil {
		e.logger.Warn().Err(err).Str("address", c.Address).Msg("scoring failed")
		return domain.Defer(domain.ReasonOther)
	}
	if prob < e.cfg.AcquireThreshold {
		e.logger.Debug().
			Str("address", c.Address).
			Float64("probability", prob).
			Int("soft_score", softScore).
			Msg("below acquire threshold")
		return domain.Reject(domain.ReasonLowProbability)
	}

	start = time.Now()
	fill, err := e.executor.Buy(ctx, c.Address, e.cfg.BuyAmountUSD)
	observability.RecordExternalCall("buy", time.Since(start).Seconds(), err)
	observability.RecordBuy(err)
	if err != nil {
		err = fmt.Errorf("%w: buy %s: %v", ErrExecutionFailed, c.Address, err)
		e.logger.Error().Err(err).Str("address", c.Address).Msg("acquisition failed")
		return domain.Reject(domain.ReasonExecutionFailed)
	}

	p := &domain.Position{
		ID:           idhash.ComputePositionID(c.Address, fill.Signature, fill.FilledAt.UnixMilli()),
		Address:      c.Address,
		Symbol:       c.Symbol,
		TokenAccount: fill.TokenAccount,
		Qty:          fill.Qty,
		BuyQty:       fill.Qty,
		BuyPrice:     fill.Price,
		PeakPrice:    fill.Price,
		OpenedAt:     fill.FilledAt,
		BuySignature: fill.Signature,
	}
	if err := e.book.Add(p); err != nil {
		// unreachable after the Has check above
		return domain.Reject(domain.ReasonAcquired)
	}
	e.persister.PersistPosition(p)

	e.logger.Info().
		Str("address", p.Address).
		Str("symbol", p.Symbol).
		Str("position_id", p.ID).
		Float64("probability", prob).
		Int("soft_score", softScore).
		Float64("qty", p.Qty).
		Float64("price", p.BuyPrice).
		Msg("position opened")

	return domain.Accept()
}

// observePositions feeds the latest price to every open position and sells on exit.
func (e *Engine) observePositions(ctx context.Context) {
	for _, p := range e.book.Open() {
		p := p
		e.isolate("position", p.Address, func() { e.observe(ctx, p) })
	}
}

func (e *Engine) observe(ctx context.Context, p *domain.Position) {
	var price *float64
	if c, err := e.fetch(ctx, p.Address); err != nil {
		e.logger.Debug().Err(err).Str("address", p.Address).Msg("position price unavailable")
	} else {
		price = c.PriceUSD
	}

	peak, highest := p.PeakPrice, p.HighestPnLPct
	tr, exit := e.monitor.Observe(p, price, e.clock())
	if !exit {
		if p.PeakPrice != peak || p.HighestPnLPct != highest {
			e.persister.PersistPosition(p)
		}
		return
	}

	start := time.Now()
	fill, err := e.executor.Sell(ctx, p.Address, p.Qty)
	observability.RecordExternalCall("sell", time.Since(start).Seconds(), err)
	if err != nil {
		// stays open; the exit condition is re-evaluated next tick
		observability.RecordSellFailure()
		e.logger.Error().
			Err(fmt.Errorf("%w: sell %s: %v", ErrExecutionFailed, p.Address, err)).
			Str("address", p.Address).
			Str("exit_reason", tr.Reason).
			Msg("exit sell failed")
		return
	}

	if !e.monitor.Close(p, fill.Price, tr.Reason, fill.Signature, e.clock()) {
		return
	}
	e.book.Remove(p.Address)
	e.persister.PersistPosition(p)

	pnl := p.PnLPct(fill.Price)
	observability.RecordClose(tr.Reason, pnl)
	e.logger.Info().
		Str("address", p.Address).
		Str("position_id", p.ID).
		Str("exit_reason", tr.Reason).
		Float64("pnl_pct", pnl).
		Float64("highest_pnl_pct", p.HighestPnLPct).
		Msg("position closed")
}

// rescan promotes due archived candidates and runs them through the gate again.
func (e *Engine) rescan(ctx context.Context) {
	for _, c := range e.revival.Rescan(ctx, e.clock()) {
		c := c
		observability.RecordRevival()
		e.isolate("revival", c.Address, func() { e.processRevived(ctx, c) })
	}
}

// processRevived evaluates a promoted candidate. Its address is already
// ledgered, so anything short of a buy sends it back to the archive or drops it.
func (e *Engine) processRevived(ctx context.Context, c *domain.Candidate) {
	now := e.clock()
	e.persister.PersistCandidate(c, now)

	v := e.gate.Evaluate(c, now)
	e.recordVerdict(c, v, 0, sourceRevival, now)

	switch v.Kind {
	case domain.VerdictAccept:
		if res := e.acquire(ctx, c); res.IsDefer() {
			e.revival.Archive(c, res.Reason, now)
		}
	case domain.VerdictReject:
		if domain.IsSoftReject(v.Reason) {
			e.revival.Archive(c, v.Reason, now)
		}
	case domain.VerdictDefer:
		e.revival.Archive(c, v.Reason, now)
	}
}

func (e *Engine) fetch(ctx context.Context, address string) (*domain.Candidate, error) {
	start := time.Now()
	c, err := e.fetcher.FetchSnapshot(ctx, address)
	observability.RecordExternalCall("snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if c == nil {
		return nil, ErrDataUnavailable
	}
	return c, nil
}

func (e *Engine) recordVerdict(c *domain.Candidate, v domain.Verdict, attempts int, source string, now time.Time) {
	observability.RecordVerdict(v.Kind.String(), v.Reason)

	e.persister.PersistVerdict(&domain.VerdictRecord{
		Address:   c.Address,
		Channel:   c.Channel,
		Verdict:   v.Kind.String(),
		Reason:    v.Reason,
		SoftScore: gate.Score(c, e.gate.Thresholds(c)),
		Attempts:  attempts,
		Source:    source,
		DecidedAt: now,
	})

	e.logger.Debug().
		Str("address", c.Address).
		Str("channel", c.Channel.String()).
		Str("verdict", v.Kind.String()).
		Str("reason", v.Reason).
		Int("attempts", attempts).
		Str("source", source).
		Msg("verdict")
}

// isolate runs fn and recovers a panic so one item cannot stop the batch.
// Returns false if fn panicked.
func (e *Engine) isolate(kind, address string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("kind", kind).
				Str("address", address).
				Interface("panic", r).
				Msg("item processing panicked")
			ok = false
		}
	}()
	fn()
	return true
}
