package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestLedgerStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "ledger.jsonl")

	store, err := OpenLedgerStore(path)
	require.NoError(t, err)

	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(ctx, &domain.LedgerEntry{Address: "mint1", Reason: domain.ReasonTooOld, Attempts: 1, LedgeredAt: at}))
	require.NoError(t, store.Add(ctx, &domain.LedgerEntry{Address: "mint2", LedgeredAt: at}))
	err = store.Add(ctx, &domain.LedgerEntry{Address: "mint1"})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
	require.NoError(t, store.Close())

	reopened, err := OpenLedgerStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	ok, err := reopened.Contains(ctx, "mint1")
	require.NoError(t, err)
	assert.True(t, ok)

	e, err := reopened.Get(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonTooOld, e.Reason)
	assert.Equal(t, 1, e.Attempts)
	assert.True(t, at.Equal(e.LedgeredAt))

	addrs, err := reopened.LoadAddresses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mint1", "mint2"}, addrs)
}

func TestLedgerStore_LegacyAndTornLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.txt")

	content := "legacyMint1\n\n{\"address\":\"mint2\",\"reason\":\"bad_chain\"}\n{\"address\":\"tor"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := OpenLedgerStore(path)
	require.NoError(t, err)
	defer store.Close()

	addrs, err := store.LoadAddresses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"legacyMint1", "mint2"}, addrs)

	_, err = store.Get(ctx, "tor")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLedgerStore_InvalidInput(t *testing.T) {
	store, err := OpenLedgerStore(filepath.Join(t.TempDir(), "l.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, errors.Is(store.Add(context.Background(), &domain.LedgerEntry{}), storage.ErrInvalidInput))
	_, err = store.Contains(context.Background(), "")
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestLedgerStore_AppendAfterTornLine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"address\":\"mint1\"}\n{\"addr"), 0o644))

	store, err := OpenLedgerStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, &domain.LedgerEntry{Address: "mint2"}))
	require.NoError(t, store.Close())

	reopened, err := OpenLedgerStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	addrs, err := reopened.LoadAddresses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mint1", "mint2"}, addrs)
}
