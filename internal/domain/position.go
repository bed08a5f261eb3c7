package domain

import "time"

// Position is an open or closed holding created by a successful acquisition.
// Mutated only by the exit state machine; closing is terminal.
type Position struct {
	ID           string // deterministic hash
	Address      string // token mint address
	Symbol       string
	TokenAccount string // associated token account holding the qty

	Qty       float64 // outstanding quantity, zero after close
	BuyQty    float64 // quantity filled at open
	BuyPrice  float64 // USD
	PeakPrice float64 // USD, non-decreasing while open
	OpenedAt  time.Time

	HighestPnLPct float64 // best PnL percent ever observed

	Closed        bool
	ClosedAt      *time.Time
	ClosePrice    *float64
	ExitReason    string
	BuySignature  string
	SellSignature string
}

// IsOpen reports whether the position still holds quantity.
func (p *Position) IsOpen() bool {
	return !p.Closed
}

// PnLPct returns the percent PnL at price relative to the buy price.
func (p *Position) PnLPct(price float64) float64 {
	if p.BuyPrice == 0 {
		return 0
	}
	return (price - p.BuyPrice) / p.BuyPrice * 100
}

// Exit reason codes.
const (
	ExitReasonTakeProfit   = "take_profit"
	ExitReasonStopLoss     = "stop_loss"
	ExitReasonTrailingStop = "trailing_stop"
	ExitReasonTimeout      = "timeout"
)
