package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"solana-sniper/internal/domain"
)

// PositionsOptions configure the positions command.
type PositionsOptions struct {
	All bool // include closed positions
}

// Positions prints positions from the position store.
func (a *App) Positions(ctx context.Context, w io.Writer, opts PositionsOptions) error {
	st, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	if !st.durable {
		return errors.New("storage.postgres_dsn not configured; positions are not persisted")
	}

	var positions []*domain.Position
	if opts.All {
		positions, err = st.positions.ListAll(ctx)
	} else {
		positions, err = st.positions.ListOpen(ctx)
	}
	if err != nil {
		return err
	}

	return writePositions(w, positions)
}

func writePositions(w io.Writer, positions []*domain.Position) error {
	if len(positions) == 0 {
		_, err := fmt.Fprintln(w, "no positions found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Opened (UTC)\tAddress\tSymbol\tQty\tBuy\tPeak\tStatus\tExit\tPnL%")

	for _, p := range positions {
		status, exit, pnl := "open", "", "-"
		if p.Closed {
			status = "closed"
			exit = p.ExitReason
			if p.ClosePrice != nil {
				pnl = formatFloat(p.PnLPct(*p.ClosePrice), 2)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.OpenedAt.UTC().Format(time.RFC3339),
			p.Address,
			p.Symbol,
			formatFloat(p.BuyQty, 2),
			formatFloat(p.BuyPrice, 8),
			formatFloat(p.PeakPrice, 8),
			status,
			exit,
			pnl,
		)
	}

	return tw.Flush()
}

func formatFloat(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
