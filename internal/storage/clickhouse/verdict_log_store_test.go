package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestVerdictLogStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVerdictLogStore(conn)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	addr := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	t.Run("empty batch", func(t *testing.T) {
		require.NoError(t, store.InsertBulk(ctx, nil))
	})

	t.Run("insert and read back", func(t *testing.T) {
		records := []*domain.VerdictRecord{
			{
				Address:   addr,
				Channel:   domain.ChannelStandard,
				Verdict:   "accept",
				SoftScore: 70,
				Attempts:  1,
				Source:    "queue",
				DecidedAt: base.Add(90 * time.Second),
			},
			{
				Address:   addr,
				Channel:   domain.ChannelStandard,
				Verdict:   "defer",
				Reason:    domain.ReasonLowVolume,
				Source:    "queue",
				DecidedAt: base,
			},
			{
				Address:   "So11111111111111111111111111111111111111112",
				Channel:   domain.ChannelEarlyLaunch,
				Verdict:   "reject",
				Reason:    domain.ReasonBadChain,
				Source:    "queue",
				DecidedAt: base,
			},
		}
		require.NoError(t, store.InsertBulk(ctx, records))

		got, err := store.GetByAddress(ctx, addr)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "defer", got[0].Verdict)
		assert.Equal(t, domain.ReasonLowVolume, got[0].Reason)
		assert.True(t, base.Equal(got[0].DecidedAt))

		assert.Equal(t, "accept", got[1].Verdict)
		assert.Equal(t, 70, got[1].SoftScore)
		assert.Equal(t, 1, got[1].Attempts)
		assert.Equal(t, domain.ChannelStandard, got[1].Channel)
	})

	t.Run("invalid record", func(t *testing.T) {
		err := store.InsertBulk(ctx, []*domain.VerdictRecord{{Verdict: "accept"}})
		assert.ErrorIs(t, err, storage.ErrInvalidInput)
	})
}
