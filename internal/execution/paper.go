package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// PriceSource supplies the latest snapshot used as fill price.
type PriceSource interface {
	FetchSnapshot(ctx context.Context, address string) (*domain.Candidate, error)
}

// PaperConfig configures the paper executor.
type PaperConfig struct {
	// Wallet owner address; token accounts are derived from it. Optional.
	Wallet      string `mapstructure:"wallet"`
	SlippageBps int64  `mapstructure:"slippage_bps"`
}

// DefaultPaperConfig returns paper executor defaults.
func DefaultPaperConfig() PaperConfig {
	return PaperConfig{SlippageBps: 100}
}

// PaperExecutor simulates fills at the latest snapshot price. No transactions are sent.
type PaperExecutor struct {
	prices   PriceSource
	wallet   string
	slippage decimal.Decimal

	mu       sync.Mutex
	holdings map[string]decimal.Decimal
	clock    func() time.Time
}

var _ Executor = (*PaperExecutor)(nil)

// NewPaperExecutor creates a paper executor.
func NewPaperExecutor(prices PriceSource, cfg PaperConfig) (*PaperExecutor, error) {
	if cfg.Wallet != "" && !solana.IsValidAddress(cfg.Wallet) {
		return nil, fmt.Errorf("paper wallet: %w", solana.ErrInvalidAddress)
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps >= 10_000 {
		return nil, fmt.Errorf("slippage_bps must be in [0,10000)")
	}

	return &PaperExecutor{
		prices:   prices,
		wallet:   cfg.Wallet,
		slippage: decimal.New(cfg.SlippageBps, -4),
		holdings: make(map[string]decimal.Decimal),
		clock:    time.Now,
	}, nil
}

// Buy fills amountUSD at the current price plus slippage.
func (e *PaperExecutor) Buy(ctx context.Context, address string, amountUSD float64) (*Fill, error) {
	if amountUSD <= 0 {
		return nil, ErrInvalidAmount
	}

	price, err := e.price(ctx, address)
	if err != nil {
		return nil, err
	}

	fillPrice := price.Mul(decimal.NewFromInt(1).Add(e.slippage))
	amount := decimal.NewFromFloat(amountUSD)
	qty := amount.Div(fillPrice)

	tokenAccount, err := e.tokenAccount(address)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.holdings[address] = e.holdings[address].Add(qty)
	e.mu.Unlock()

	return &Fill{
		Address:      address,
		Qty:          qty.InexactFloat64(),
		Price:        fillPrice.InexactFloat64(),
		AmountUSD:    amountUSD,
		Signature:    "paper-" + uuid.New().String(),
		TokenAccount: tokenAccount,
		FilledAt:     e.clock(),
	}, nil
}

// Sell fills qty at the current price minus slippage.
func (e *PaperExecutor) Sell(ctx context.Context, address string, qty float64) (*Fill, error) {
	if qty <= 0 {
		return nil, ErrInvalidAmount
	}
	q := decimal.NewFromFloat(qty)

	e.mu.Lock()
	held := e.holdings[address]
	e.mu.Unlock()
	if q.GreaterThan(held) {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrInsufficientHoldings, held, q)
	}

	price, err := e.price(ctx, address)
	if err != nil {
		return nil, err
	}
	fillPrice := price.Mul(decimal.NewFromInt(1).Sub(e.slippage))

	e.mu.Lock()
	remaining := e.holdings[address].Sub(q)
	if remaining.IsPositive() {
		e.holdings[address] = remaining
	} else {
		delete(e.holdings, address)
	}
	e.mu.Unlock()

	tokenAccount, err := e.tokenAccount(address)
	if err != nil {
		return nil, err
	}

	return &Fill{
		Address:      address,
		Qty:          qty,
		Price:        fillPrice.InexactFloat64(),
		AmountUSD:    q.Mul(fillPrice).InexactFloat64(),
		Signature:    "paper-" + uuid.New().String(),
		TokenAccount: tokenAccount,
		FilledAt:     e.clock(),
	}, nil
}

// Holdings returns the simulated balance of address.
func (e *PaperExecutor) Holdings(address string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.holdings[address].InexactFloat64()
}

// Restore seeds holdings for positions opened before a restart.
func (e *PaperExecutor) Restore(address string, qty float64) {
	if qty <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.holdings[address] = decimal.NewFromFloat(qty)
}

func (e *PaperExecutor) price(ctx context.Context, address string) (decimal.Decimal, error) {
	snap, err := e.prices.FetchSnapshot(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price %s: %w", address, err)
	}
	if snap == nil || snap.PriceUSD == nil || *snap.PriceUSD <= 0 {
		return decimal.Zero, ErrNoPrice
	}
	return decimal.NewFromFloat(*snap.PriceUSD), nil
}

func (e *PaperExecutor) tokenAccount(mint string) (string, error) {
	if e.wallet == "" {
		return "", nil
	}
	ata, err := solana.AssociatedTokenAddress(e.wallet, mint)
	if err != nil {
		return "", fmt.Errorf("derive token account: %w", err)
	}
	return ata, nil
}
