package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/storage"
)

// ReasonManual marks addresses ledgered from the CLI.
const ReasonManual = "manual"

// LedgerCheck prints whether address is ledgered.
func (a *App) LedgerCheck(ctx context.Context, w io.Writer, address string) error {
	st, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	e, err := st.ledger.Get(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(w, "%s: not ledgered\n", address)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: ledgered reason=%s attempts=%d at=%s\n",
		e.Address, e.Reason, e.Attempts, e.LedgeredAt.UTC().Format(time.RFC3339))
	return nil
}

// LedgerAdd ledgers address so it is never admitted. An empty reason records "manual".
func (a *App) LedgerAdd(ctx context.Context, w io.Writer, address, reason string) error {
	if _, err := solana.DecodeAddress(address); err != nil {
		return err
	}
	if reason == "" {
		reason = ReasonManual
	}

	st, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	err = st.ledger.Add(ctx, &domain.LedgerEntry{
		Address:    address,
		Reason:     reason,
		LedgeredAt: time.Now().UTC(),
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		fmt.Fprintf(w, "%s: already ledgered\n", address)
		return nil
	}
	if err != nil {
		return err
	}

	a.Logger.Info().Str("address", address).Str("reason", reason).Msg("address ledgered")
	fmt.Fprintf(w, "%s: ledgered\n", address)
	return nil
}
