package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/spf13/cobra"
)

var assetIDSubIDs []string

// ── asset-id ──────────────────────────────────────────────────────────────────

var assetIDCmd = &cobra.Command{
	Use:   "asset-id <contract>",
	Short: "Compute asset ids offline",
	Long: `Compute sha256(contract_id ‖ sub_id) for one or more sub ids.
No node is contacted. Without --sub-id the default (zero) sub id is used.

Examples:
  src20kit asset-id 0x5FbDB2315678afecb367f032d93F642f64180aa3
  src20kit asset-id 0x5FbDB2315678afecb367f032d93F642f64180aa3 --sub-id 0x01 --sub-id 0x02`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := src20.ParseContractID(args[0])
		if err != nil {
			return err
		}
		rows, err := assetIDRows(id, assetIDSubIDs)
		if err != nil {
			return err
		}

		fmt.Println(ui.Meta("Contract ID: " + id.String()))
		t := ui.NewTable(ui.Column{Title: "Sub ID", Width: 66}, ui.Column{Title: "Asset ID", Width: 66})
		for _, r := range rows {
			t.AddRow(r[0], r[1])
		}
		fmt.Println(t.Render())
		return nil
	},
}

func assetIDRows(id src20.ContractID, subs []string) ([][2]string, error) {
	if len(subs) == 0 {
		subs = []string{""}
	}
	rows := make([][2]string, 0, len(subs))
	for _, s := range subs {
		sub, err := src20.ParseSubID(s)
		if err != nil {
			return nil, err
		}
		rows = append(rows, [2]string{sub.String(), src20.AssetIDFor(sub, id).String()})
	}
	return rows, nil
}

func init() {
	assetIDCmd.Flags().StringArrayVar(&assetIDSubIDs, "sub-id", nil, "hex sub id (repeatable)")
}
