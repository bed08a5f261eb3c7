// Package execution places acquisition and exit orders.
package execution

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPrice is returned when no fill price is available.
	ErrNoPrice = errors.New("no price available")

	// ErrInsufficientHoldings is returned when selling more than is held.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrInvalidAmount is returned for non-positive order sizes.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Fill is the result of an executed order.
type Fill struct {
	Address      string
	Qty          float64 // tokens bought or sold
	Price        float64 // USD per token, after slippage
	AmountUSD    float64 // USD spent or received
	Signature    string
	TokenAccount string
	FilledAt     time.Time
}

// Executor buys and sells tokens.
type Executor interface {
	// Buy spends amountUSD on address.
	Buy(ctx context.Context, address string, amountUSD float64) (*Fill, error)

	// Sell sells qty of address.
	Sell(ctx context.Context, address string, qty float64) (*Fill, error)
}
