package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/solana"
)

type stubRPC struct {
	accounts []solana.TokenAccountBalance
	supply   *solana.TokenAmount
	err      error
}

func (s *stubRPC) GetTokenLargestAccounts(context.Context, string) ([]solana.TokenAccountBalance, error) {
	return s.accounts, s.err
}

func (s *stubRPC) GetTokenSupply(context.Context, string) (*solana.TokenAmount, error) {
	return s.supply, nil
}

func (s *stubRPC) GetSlot(context.Context) (int64, error) {
	return 1, nil
}

func balance(raw string) solana.TokenAccountBalance {
	return solana.TokenAccountBalance{Address: "acc", Amount: solana.TokenAmount{Amount: raw, Decimals: 6}}
}

func TestRPCHolderSource_Concentrated(t *testing.T) {
	rpc := &stubRPC{
		accounts: []solana.TokenAccountBalance{
			balance("700000000000"),
			balance("100000000000"),
			balance("0"),
		},
		supply: &solana.TokenAmount{Amount: "1000000000000", Decimals: 6},
	}
	src := NewRPCHolderSource(rpc, DefaultHolderConfig())

	info, err := src.Holders(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Count)
	assert.InDelta(t, 80, info.Top10SharePct, 1e-9)
	assert.True(t, info.ClusterFlagged)
}

func TestRPCHolderSource_Distributed(t *testing.T) {
	var accounts []solana.TokenAccountBalance
	for i := 0; i < 20; i++ {
		accounts = append(accounts, balance("10000000000"))
	}
	rpc := &stubRPC{
		accounts: accounts,
		supply:   &solana.TokenAmount{Amount: "1000000000000", Decimals: 6},
	}
	src := NewRPCHolderSource(rpc, DefaultHolderConfig())

	info, err := src.Holders(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, 20, info.Count)
	assert.InDelta(t, 10, info.Top10SharePct, 1e-9)
	assert.False(t, info.ClusterFlagged)
}

func TestRPCHolderSource_UnknownSupply(t *testing.T) {
	rpc := &stubRPC{accounts: []solana.TokenAccountBalance{balance("5")}}
	src := NewRPCHolderSource(rpc, DefaultHolderConfig())

	info, err := src.Holders(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Count)
	assert.False(t, info.ClusterFlagged)
}

func TestRPCHolderSource_Error(t *testing.T) {
	rpc := &stubRPC{err: errors.New("rpc down")}
	src := NewRPCHolderSource(rpc, DefaultHolderConfig())

	_, err := src.Holders(context.Background(), testMint)
	require.Error(t, err)
}
