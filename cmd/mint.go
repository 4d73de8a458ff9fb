package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/spf13/cobra"
)

var (
	mintTo     string
	mintSubID  string
	mintAmount uint64
)

// ── mint ──────────────────────────────────────────────────────────────────────

var mintCmd = &cobra.Command{
	Use:   "mint <alias|address>",
	Short: "Mint an asset of a deployed token",
	Long: `Mint --amount base units of the asset identified by --sub-id.

The recipient defaults to the configured wallet. A 32-byte --to is treated as
a contract id, a 20-byte one as an address.

Examples:
  src20kit mint mtk --amount 100
  src20kit mint mtk --amount 5 --sub-id 0x01 --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := src20.ParseSubID(mintSubID)
		if err != nil {
			return err
		}
		inst, dep, err := resolveInstance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		recipient := src20.AddressIdentity(inst.Wallet.Address())
		if mintTo != "" {
			if recipient, err = parseRecipient(mintTo); err != nil {
				return err
			}
		}

		var receipt *chain.TxReceipt
		err = spin("Minting...", func() error {
			var err error
			receipt, err = inst.Mint(cmd.Context(), recipient, sub, mintAmount)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Minted %s to %s", ui.Val(fmt.Sprint(mintAmount)), ui.Addr(recipient.String()))))
		printTxResult(cmd, inst, dep, sub, receipt)
		return nil
	},
}

func init() {
	mintCmd.Flags().StringVar(&mintTo, "to", "", "recipient address or contract id (default: wallet)")
	mintCmd.Flags().StringVar(&mintSubID, "sub-id", "", "hex sub id (default: zero)")
	mintCmd.Flags().Uint64Var(&mintAmount, "amount", 0, "base units to mint")
	_ = mintCmd.MarkFlagRequired("amount")
}
