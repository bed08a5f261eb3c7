// Package position tracks open positions and decides when they exit.
package position

import (
	"fmt"
	"time"

	"solana-sniper/internal/domain"
)

// Config holds exit thresholds. Percentages are whole percents (30 = 30%).
type Config struct {
	TakeProfitPct float64       `mapstructure:"take_profit_pct"`
	StopLossPct   float64       `mapstructure:"stop_loss_pct"`
	TrailingPct   float64       `mapstructure:"trailing_pct"`
	MaxHold       time.Duration `mapstructure:"max_hold"`
}

// DefaultConfig returns production exit thresholds.
func DefaultConfig() Config {
	return Config{
		TakeProfitPct: 35,
		StopLossPct:   20,
		TrailingPct:   30,
		MaxHold:       2 * time.Hour,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be positive")
	}
	if c.StopLossPct <= 0 || c.StopLossPct > 100 {
		return fmt.Errorf("stop_loss_pct must be in (0,100]")
	}
	if c.TrailingPct < 0 {
		return fmt.Errorf("trailing_pct must be non-negative")
	}
	if c.MaxHold < 0 {
		return fmt.Errorf("max_hold must be non-negative")
	}
	return nil
}

// Transition is an exit decision for an open position.
type Transition struct {
	Reason string
	Price  float64
	PnLPct float64
}

// Monitor is the exit state machine: Open -> Closed(reason).
type Monitor struct {
	cfg Config
}

// NewMonitor creates a Monitor.
func NewMonitor(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// Observe feeds one price observation. A nil price leaves p unchanged.
// It updates peak price and highest PnL, then checks exits in order:
// take profit, stop loss, trailing stop, timeout.
func (m *Monitor) Observe(p *domain.Position, price *float64, now time.Time) (Transition, bool) {
	if p == nil || p.Closed || price == nil || p.BuyPrice <= 0 {
		return Transition{}, false
	}

	px := *price
	if px > p.PeakPrice {
		p.PeakPrice = px
	}

	pnl := p.PnLPct(px)
	if pnl > p.HighestPnLPct {
		p.HighestPnLPct = pnl
	}

	t := Transition{Price: px, PnLPct: pnl}
	switch {
	case pnl >= m.cfg.TakeProfitPct:
		t.Reason = domain.ExitReasonTakeProfit
	case pnl <= -m.cfg.StopLossPct:
		t.Reason = domain.ExitReasonStopLoss
	case m.cfg.TrailingPct > 0 && pnl <= p.HighestPnLPct-m.cfg.TrailingPct:
		t.Reason = domain.ExitReasonTrailingStop
	case m.cfg.MaxHold > 0 && now.Sub(p.OpenedAt) >= m.cfg.MaxHold:
		t.Reason = domain.ExitReasonTimeout
	default:
		return Transition{}, false
	}
	return t, true
}

// Close writes the terminal state. Closing a closed position is a no-op
// and returns false.
func (m *Monitor) Close(p *domain.Position, price float64, reason, sellSignature string, now time.Time) bool {
	if p == nil || p.Closed {
		return false
	}
	closedAt := now
	closePrice := price

	p.Closed = true
	p.ClosedAt = &closedAt
	p.ClosePrice = &closePrice
	p.ExitReason = reason
	p.SellSignature = sellSignature
	p.Qty = 0
	return true
}
