package position

import (
	"math/rand"
	"testing"
	"time"

	"solana-sniper/internal/domain"
)

var opened = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newPosition(buy float64) *domain.Position {
	return &domain.Position{
		ID:        "pos-1",
		Address:   "mint1",
		Qty:       100,
		BuyQty:    100,
		BuyPrice:  buy,
		PeakPrice: buy,
		OpenedAt:  opened,
	}
}

func price(v float64) *float64 { return &v }

// runPath feeds prices one minute apart and returns the first transition.
func runPath(m *Monitor, p *domain.Position, path []float64) (Transition, int, bool) {
	for i, px := range path {
		if t, ok := m.Observe(p, price(px), opened.Add(time.Duration(i)*time.Minute)); ok {
			return t, i, true
		}
	}
	return Transition{}, -1, false
}

func TestObserve_TrailingScenarioStaysOpen(t *testing.T) {
	m := NewMonitor(Config{TakeProfitPct: 35, StopLossPct: 20, TrailingPct: 30, MaxHold: 24 * time.Hour})
	p := newPosition(1.00)

	if tr, i, ok := runPath(m, p, []float64{1.00, 1.10, 1.30, 1.05}); ok {
		t.Fatalf("expected position to stay open, got %s at tick %d", tr.Reason, i)
	}
	if p.PeakPrice != 1.30 {
		t.Errorf("PeakPrice = %v, want 1.30", p.PeakPrice)
	}
	if p.HighestPnLPct < 29.999 || p.HighestPnLPct > 30.001 {
		t.Errorf("HighestPnLPct = %v, want ~30", p.HighestPnLPct)
	}
}

func TestObserve_Transitions(t *testing.T) {
	cfg := Config{TakeProfitPct: 35, StopLossPct: 20, TrailingPct: 30, MaxHold: time.Hour}

	tests := []struct {
		name       string
		path       []float64
		wantReason string
		wantTick   int
	}{
		{"take profit", []float64{1.10, 1.40}, domain.ExitReasonTakeProfit, 1},
		{"stop loss", []float64{0.95, 0.79}, domain.ExitReasonStopLoss, 1},
		{"trailing from best pnl", []float64{1.10, 1.30, 0.99}, domain.ExitReasonTrailingStop, 2},
		{"timeout at max hold", append(flat(61), 1.50), domain.ExitReasonTimeout, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(cfg)
			p := newPosition(1.00)
			tr, tick, ok := runPath(m, p, tt.path)
			if !ok {
				t.Fatalf("expected transition %s", tt.wantReason)
			}
			if tr.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", tr.Reason, tt.wantReason)
			}
			if tick != tt.wantTick {
				t.Errorf("tick = %d, want %d", tick, tt.wantTick)
			}
		})
	}
}

func flat(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}

func TestObserve_CheckOrder(t *testing.T) {
	// past max hold and above take profit: take profit is checked first
	m := NewMonitor(Config{TakeProfitPct: 35, StopLossPct: 20, TrailingPct: 30, MaxHold: time.Minute})
	p := newPosition(1.00)

	tr, ok := m.Observe(p, price(2.0), opened.Add(time.Hour))
	if !ok || tr.Reason != domain.ExitReasonTakeProfit {
		t.Fatalf("got %+v, want take_profit", tr)
	}
}

func TestObserve_NilPriceLeavesPositionUnchanged(t *testing.T) {
	m := NewMonitor(Config{TakeProfitPct: 35, StopLossPct: 20, TrailingPct: 30, MaxHold: time.Minute})
	p := newPosition(1.00)
	before := *p

	if _, ok := m.Observe(p, nil, opened.Add(time.Hour)); ok {
		t.Fatal("nil price must not transition, even past max hold")
	}
	if *p != before {
		t.Errorf("position mutated: %+v", p)
	}
}

func TestObserve_PeakNeverDecreases(t *testing.T) {
	m := NewMonitor(Config{TakeProfitPct: 1e9, StopLossPct: 100, TrailingPct: 0})
	p := newPosition(1.00)
	rng := rand.New(rand.NewSource(7))

	last := p.PeakPrice
	for i := 0; i < 500; i++ {
		m.Observe(p, price(0.5+rng.Float64()*2), opened)
		if p.PeakPrice < last {
			t.Fatalf("peak decreased at step %d: %v -> %v", i, last, p.PeakPrice)
		}
		last = p.PeakPrice
	}
}

func TestClose_TerminalAndIdempotent(t *testing.T) {
	m := NewMonitor(DefaultConfig())
	p := newPosition(1.00)
	now := opened.Add(10 * time.Minute)

	if !m.Close(p, 1.2, domain.ExitReasonTakeProfit, "sell-1", now) {
		t.Fatal("first close should transition")
	}
	if !p.Closed || p.Qty != 0 || *p.ClosePrice != 1.2 || !p.ClosedAt.Equal(now) {
		t.Errorf("close not written: %+v", p)
	}
	if p.ExitReason != domain.ExitReasonTakeProfit || p.SellSignature != "sell-1" {
		t.Errorf("exit reason/signature not written: %+v", p)
	}

	if m.Close(p, 0.5, domain.ExitReasonStopLoss, "sell-2", now.Add(time.Minute)) {
		t.Error("second close should be a no-op")
	}
	if *p.ClosePrice != 1.2 || p.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("closed position mutated: %+v", p)
	}

	if _, ok := m.Observe(p, price(5), now); ok {
		t.Error("closed position must not transition")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.StopLossPct = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero stop loss")
	}
}
