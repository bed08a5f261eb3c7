package market

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-sniper/internal/solana"
)

// topHolderCount is the number of largest accounts summed for concentration.
const topHolderCount = 10

// HolderInfo summarizes the holder distribution of a mint.
type HolderInfo struct {
	Count          int     // non-zero accounts among the largest (lower bound)
	Top10SharePct  float64 // share of supply held by the 10 largest accounts
	ClusterFlagged bool
}

// RPCHolderSource derives holder data from getTokenLargestAccounts and getTokenSupply.
type RPCHolderSource struct {
	client solana.RPCClient
	config HolderConfig
}

// NewRPCHolderSource creates a holder source over a Solana RPC client.
func NewRPCHolderSource(client solana.RPCClient, cfg HolderConfig) *RPCHolderSource {
	return &RPCHolderSource{client: client, config: cfg}
}

var _ HolderSource = (*RPCHolderSource)(nil)

// Holders returns holder info for mint.
func (s *RPCHolderSource) Holders(ctx context.Context, mint string) (HolderInfo, error) {
	accounts, err := s.client.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return HolderInfo{}, fmt.Errorf("largest accounts: %w", err)
	}

	supply, err := s.client.GetTokenSupply(ctx, mint)
	if err != nil {
		return HolderInfo{}, fmt.Errorf("token supply: %w", err)
	}

	var info HolderInfo
	top := decimal.Zero
	for i, acc := range accounts {
		amount, err := acc.Amount.Decimal()
		if err != nil {
			return HolderInfo{}, err
		}
		if !amount.IsPositive() {
			continue
		}
		info.Count++
		if i < topHolderCount {
			top = top.Add(amount)
		}
	}

	if supply == nil {
		return info, nil
	}
	total, err := supply.Decimal()
	if err != nil {
		return HolderInfo{}, err
	}
	if total.IsPositive() {
		info.Top10SharePct = top.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		info.ClusterFlagged = s.config.ClusterMaxSharePct > 0 && info.Top10SharePct > s.config.ClusterMaxSharePct
	}

	return info, nil
}
