package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
)

const testMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const pairsJSON = `{
  "schemaVersion": "1.0.0",
  "pairs": [
    {
      "chainId": "solana",
      "dexId": "raydium",
      "pairAddress": "small",
      "baseToken": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "TEST"},
      "priceUsd": "0.0009",
      "liquidity": {"usd": 1200},
      "volume": {"h24": 500, "h1": 50}
    },
    {
      "chainId": "solana",
      "dexId": "pumpswap",
      "pairAddress": "big",
      "baseToken": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "TEST"},
      "priceUsd": "0.00123",
      "txns": {"m5": {"buys": 30, "sells": 12}},
      "volume": {"h24": 88000.5, "h1": 4100},
      "priceChange": {"m5": 7.5},
      "liquidity": {"usd": 42000},
      "fdv": 150000,
      "pairCreatedAt": 1773140400000,
      "info": {"socials": [{"type": "twitter", "url": "https://x.com/test"}]}
    },
    {
      "chainId": "solana",
      "pairAddress": "quote-side",
      "baseToken": {"address": "So11111111111111111111111111111111111111112"},
      "liquidity": {"usd": 9000000}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *DexScreener {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RequestsPerMinute = 60000
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewDexScreener(cfg, zerolog.Nop(), opts...)
}

type stubHolders struct {
	info HolderInfo
	err  error
}

func (s stubHolders) Holders(context.Context, string) (HolderInfo, error) {
	return s.info, s.err
}

func TestDexScreener_FetchSnapshot(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(pairsJSON))
	}, WithHolderSource(stubHolders{info: HolderInfo{Count: 17, ClusterFlagged: true}}))

	c, err := client.FetchSnapshot(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "/latest/dex/tokens/"+testMint, path)
	assert.Equal(t, "TEST", c.Symbol)
	assert.Equal(t, "solana", c.ChainID)
	assert.Equal(t, domain.ChannelStandard, c.Channel)
	assert.InDelta(t, 42000, *c.LiquidityUSD, 1e-9)
	assert.InDelta(t, 88000.5, *c.Volume24hUSD, 1e-9)
	assert.InDelta(t, 4100, *c.Volume1hUSD, 1e-9)
	assert.InDelta(t, 150000, *c.MarketCapUSD, 1e-9, "falls back to fdv")
	assert.InDelta(t, 0.00123, *c.PriceUSD, 1e-12)
	assert.InDelta(t, 7.5, *c.PriceChange5m, 1e-9)
	assert.Equal(t, 42, c.Txns5m)
	assert.Equal(t, 12, c.Sells5m)
	assert.True(t, c.HasSocials)
	assert.Equal(t, 17, c.Holders)
	assert.True(t, c.ClusterFlagged)

	// pair created one hour before testNow
	require.True(t, c.AgeKnown())
	assert.InDelta(t, 60, c.Age(), 1e-6)
}

func TestDexScreener_FetchSnapshot_MissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"chainId":"solana","baseToken":{"address":"` + testMint + `"},"liquidity":{"usd":null}}]}`))
	}, WithHolderSource(stubHolders{err: errors.New("rpc down")}))

	c, err := client.FetchSnapshot(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Nil(t, c.LiquidityUSD)
	assert.Nil(t, c.Volume24hUSD)
	assert.Nil(t, c.MarketCapUSD)
	assert.Nil(t, c.PriceChange5m)
	assert.False(t, c.AgeKnown())
	assert.Equal(t, 0, c.Holders)
}

func TestDexScreener_FetchSnapshot_NoPairs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	})

	c, err := client.FetchSnapshot(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDexScreener_FetchSnapshot_OtherChainOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"chainId":"ethereum","baseToken":{"address":"` + testMint + `"},"liquidity":{"usd":1000}}]}`))
	})

	c, err := client.FetchSnapshot(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "ethereum", c.ChainID)
}

func TestDexScreener_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchSnapshot(context.Background(), testMint)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	_, err := client.FetchSnapshot(context.Background(), testMint)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDexScreener_Discover(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-profiles/latest/v1", r.URL.Path)
		w.Write([]byte(`[
			{"chainId":"solana","tokenAddress":"AAA"},
			{"chainId":"base","tokenAddress":"0xabc"},
			{"chainId":"solana","tokenAddress":"BBB"},
			{"chainId":"solana","tokenAddress":"AAA"}
		]`))
	})

	addrs, err := client.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, addrs)
}

func TestDexScreener_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pairsJSON))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchSnapshot(ctx, testMint)
	require.Error(t, err)
}
