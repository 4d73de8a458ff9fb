package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/spf13/cobra"
)

var (
	burnSubID  string
	burnAmount uint64
)

// ── burn ──────────────────────────────────────────────────────────────────────

var burnCmd = &cobra.Command{
	Use:   "burn <alias|address>",
	Short: "Burn an asset held by the wallet",
	Long: `Burn --amount base units of the asset identified by --sub-id from the
configured wallet's balance. The transaction reverts when the wallet holds
less than --amount.

Examples:
  src20kit burn mtk --amount 50
  src20kit burn 0x5FbDB2315678afecb367f032d93F642f64180aa3 --amount 1 --sub-id 0x01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := src20.ParseSubID(burnSubID)
		if err != nil {
			return err
		}
		inst, dep, err := resolveInstance(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var receipt *chain.TxReceipt
		err = spin("Burning...", func() error {
			var err error
			receipt, err = inst.Burn(cmd.Context(), sub, burnAmount)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Burned %s from %s", ui.Val(fmt.Sprint(burnAmount)), ui.Addr(inst.Wallet.Address().Hex()))))
		printTxResult(cmd, inst, dep, sub, receipt)
		return nil
	},
}

func init() {
	burnCmd.Flags().StringVar(&burnSubID, "sub-id", "", "hex sub id (default: zero)")
	burnCmd.Flags().Uint64Var(&burnAmount, "amount", 0, "base units to burn")
	_ = burnCmd.MarkFlagRequired("amount")
}
