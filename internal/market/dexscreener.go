package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"solana-sniper/internal/domain"
)

// ErrUnexpectedStatus is returned for non-200 responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// HolderSource supplies holder data DexScreener does not carry.
type HolderSource interface {
	Holders(ctx context.Context, mint string) (HolderInfo, error)
}

// DexScreener fetches pair snapshots and token profiles from the DexScreener API.
type DexScreener struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	holders HolderSource
	logger  zerolog.Logger
	clock   func() time.Time
}

// Option configures DexScreener.
type Option func(*DexScreener)

// WithHolderSource merges holder data into every snapshot.
func WithHolderSource(h HolderSource) Option {
	return func(d *DexScreener) {
		d.holders = h
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *DexScreener) {
		d.http = client
	}
}

// WithClock sets the time source used to derive pair age.
func WithClock(clock func() time.Time) Option {
	return func(d *DexScreener) {
		d.clock = clock
	}
}

// NewDexScreener creates a rate-limited, circuit-broken DexScreener client.
func NewDexScreener(cfg Config, logger zerolog.Logger, opts ...Option) *DexScreener {
	logger = logger.With().Str("component", "dexscreener").Logger()

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	d := &DexScreener{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		clock:   time.Now,
	}

	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dexscreener",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchSnapshot returns the current market snapshot of address.
// Returns nil, nil when DexScreener has no pair for it yet.
func (d *DexScreener) FetchSnapshot(ctx context.Context, address string) (*domain.Candidate, error) {
	body, err := d.get(ctx, "/latest/dex/tokens/"+url.PathEscape(address))
	if err != nil {
		return nil, fmt.Errorf("fetch pairs %s: %w", address, err)
	}

	pair, ok := d.bestPair(gjson.GetBytes(body, "pairs"), address)
	if !ok {
		return nil, nil
	}

	c := d.candidateFromPair(pair, address)

	if d.holders != nil && c.ChainID == d.config.ChainID {
		info, err := d.holders.Holders(ctx, address)
		if err != nil {
			// holder data is optional; the gate treats 0 as unknown
			d.logger.Debug().Err(err).Str("address", address).Msg("holder lookup failed")
		} else {
			c.Holders = info.Count
			c.ClusterFlagged = info.ClusterFlagged
		}
	}

	return c, nil
}

// bestPair picks the most liquid pair whose base token is address, preferring the configured chain.
// Pairs on other chains are only used when none exist on the configured one, so the gate can reject them.
func (d *DexScreener) bestPair(pairs gjson.Result, address string) (gjson.Result, bool) {
	var best, bestOther gjson.Result
	var found, foundOther bool

	pairs.ForEach(func(_, p gjson.Result) bool {
		if p.Get("baseToken.address").String() != address {
			return true
		}
		liq := p.Get("liquidity.usd").Float()
		if p.Get("chainId").String() == d.config.ChainID {
			if !found || liq > best.Get("liquidity.usd").Float() {
				best, found = p, true
			}
		} else if !foundOther || liq > bestOther.Get("liquidity.usd").Float() {
			bestOther, foundOther = p, true
		}
		return true
	})

	if found {
		return best, true
	}
	return bestOther, foundOther
}

func (d *DexScreener) candidateFromPair(p gjson.Result, address string) *domain.Candidate {
	c := &domain.Candidate{
		Address:       address,
		Symbol:        p.Get("baseToken.symbol").String(),
		ChainID:       p.Get("chainId").String(),
		Channel:       domain.ChannelStandard,
		LiquidityUSD:  optFloat(p.Get("liquidity.usd")),
		Volume24hUSD:  optFloat(p.Get("volume.h24")),
		Volume1hUSD:   optFloat(p.Get("volume.h1")),
		MarketCapUSD:  optFloat(p.Get("marketCap")),
		PriceUSD:      optFloat(p.Get("priceUsd")),
		PriceChange5m: optFloat(p.Get("priceChange.m5")),
		Buys5m:        int(p.Get("txns.m5.buys").Int()),
		Sells5m:       int(p.Get("txns.m5.sells").Int()),
	}
	c.Txns5m = c.Buys5m + c.Sells5m

	if c.MarketCapUSD == nil {
		c.MarketCapUSD = optFloat(p.Get("fdv"))
	}

	if created := p.Get("pairCreatedAt"); created.Exists() && created.Int() > 0 {
		age := d.clock().Sub(time.UnixMilli(created.Int())).Minutes()
		if age < 0 {
			age = 0
		}
		c.AgeMinutes = &age
	}

	c.HasSocials = len(p.Get("info.socials").Array()) > 0 || len(p.Get("info.websites").Array()) > 0
	return c
}

// Discover returns the most recent token profiles on the configured chain.
func (d *DexScreener) Discover(ctx context.Context) ([]string, error) {
	body, err := d.get(ctx, "/token-profiles/latest/v1")
	if err != nil {
		return nil, fmt.Errorf("fetch token profiles: %w", err)
	}

	seen := make(map[string]bool)
	var addresses []string
	gjson.ParseBytes(body).ForEach(func(_, p gjson.Result) bool {
		if p.Get("chainId").String() != d.config.ChainID {
			return true
		}
		addr := p.Get("tokenAddress").String()
		if addr != "" && !seen[addr] {
			seen[addr] = true
			addresses = append(addresses, addr)
		}
		return true
	})

	return addresses, nil
}

// get performs a rate-limited GET through the circuit breaker.
func (d *DexScreener) get(ctx context.Context, path string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := d.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(d.config.BaseURL, "/")+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := d.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		if !gjson.ValidBytes(body) {
			return nil, errors.New("invalid json response")
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// optFloat returns nil for missing or null fields. DexScreener sends prices as strings.
func optFloat(r gjson.Result) *float64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type == gjson.String && r.String() == "" {
		return nil
	}
	v := r.Float()
	return &v
}
