package cli

import (
	"github.com/spf13/cobra"
)

var ledgerReason string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or extend the permanent dedup ledger",
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check <address>",
	Short: "Report whether an address is ledgered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().LedgerCheck(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var ledgerAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Ledger an address so it is never admitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().LedgerAdd(cmd.Context(), cmd.OutOrStdout(), args[0], ledgerReason)
	},
}

func init() {
	ledgerAddCmd.Flags().StringVar(&ledgerReason, "reason", "", "Reason recorded with the entry (default \"manual\")")

	ledgerCmd.AddCommand(ledgerCheckCmd)
	ledgerCmd.AddCommand(ledgerAddCmd)
}
