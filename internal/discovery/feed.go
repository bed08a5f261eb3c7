package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-sniper/internal/solana"
)

// LaunchEvent is a newly created token seen on the live feed.
type LaunchEvent struct {
	Mint      string
	Symbol    string
	Name      string
	Creator   string
	Signature string
	Slot      int64
	SeenAt    time.Time
}

// FeedConfig configures the launch feed.
type FeedConfig struct {
	Buffer       int `mapstructure:"buffer"`
	SeenCapacity int `mapstructure:"seen_capacity"`
}

// LaunchFeed subscribes to pump.fun logs and emits one LaunchEvent per new mint.
type LaunchFeed struct {
	streamer solana.LogsStreamer
	seen     *SeenCache
	out      chan LaunchEvent
	logger   zerolog.Logger
	clock    func() time.Time
}

// NewLaunchFeed creates a feed over streamer.
func NewLaunchFeed(streamer solana.LogsStreamer, cfg FeedConfig, logger zerolog.Logger) *LaunchFeed {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	return &LaunchFeed{
		streamer: streamer,
		seen:     NewSeenCache(cfg.SeenCapacity),
		out:      make(chan LaunchEvent, cfg.Buffer),
		logger:   logger.With().Str("component", "launch_feed").Logger(),
		clock:    time.Now,
	}
}

// Events returns the channel of launch events.
func (f *LaunchFeed) Events() <-chan LaunchEvent {
	return f.out
}

// Run streams logs until ctx is done. Returns nil on clean shutdown.
func (f *LaunchFeed) Run(ctx context.Context) error {
	notifs := make(chan solana.LogNotification, cap(f.out))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return f.streamer.StreamLogs(gctx, solana.LogsFilter{Mentions: []string{PumpFun}}, notifs)
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case n := <-notifs:
				if err := f.handle(gctx, n); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (f *LaunchFeed) handle(ctx context.Context, n solana.LogNotification) error {
	if n.Failed {
		return nil
	}

	for _, ev := range ParseCreateEvents(n.Logs) {
		if !solana.IsValidAddress(ev.Mint) {
			f.logger.Debug().Str("mint", ev.Mint).Str("signature", n.Signature).Msg("invalid mint in create event")
			continue
		}
		if !f.seen.MarkNew(ev.Mint) {
			continue
		}

		launch := LaunchEvent{
			Mint:      ev.Mint,
			Symbol:    ev.Symbol,
			Name:      ev.Name,
			Creator:   ev.Creator,
			Signature: n.Signature,
			Slot:      n.Slot,
			SeenAt:    f.clock(),
		}

		select {
		case f.out <- launch:
			f.logger.Debug().Str("mint", launch.Mint).Str("symbol", launch.Symbol).Int64("slot", launch.Slot).Msg("launch detected")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
