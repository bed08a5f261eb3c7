package cli

import (
	"github.com/spf13/cobra"

	"solana-sniper/internal/app"
)

var positionsAll bool

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List open positions (--all includes closed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Positions(cmd.Context(), cmd.OutOrStdout(), app.PositionsOptions{All: positionsAll})
	},
}

func init() {
	positionsCmd.Flags().BoolVar(&positionsAll, "all", false, "Include closed positions")
}
