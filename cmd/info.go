package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	infoSubID string
	infoAsset string
)

// ── info ──────────────────────────────────────────────────────────────────────

var infoCmd = &cobra.Command{
	Use:   "info <alias|address>",
	Short: "Show name, symbol, decimals and supply of an asset",
	Long: `Read the metadata and supply of one asset of a deployed token.

The asset is the default one unless --sub-id or --asset-id selects another.
Fields the contract does not know for that asset are shown as "-".

Examples:
  src20kit info mtk
  src20kit info mtk --sub-id 0x01
  src20kit info 0x5FbDB2315678afecb367f032d93F642f64180aa3 --asset-id 0x<64 hex chars>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if infoSubID != "" && infoAsset != "" {
			return fmt.Errorf("--sub-id and --asset-id are mutually exclusive")
		}
		inst, dep, err := resolveInstance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		asset := inst.DefaultAssetID()
		switch {
		case infoAsset != "":
			if asset, err = src20.ParseAssetID(infoAsset); err != nil {
				return err
			}
		case infoSubID != "":
			sub, err := src20.ParseSubID(infoSubID)
			if err != nil {
				return err
			}
			asset = inst.AssetID(sub)
		}

		var md assetMetadata
		err = spin("Reading...", func() error {
			var err error
			md, err = readMetadata(cmd.Context(), inst, asset)
			return err
		})
		if err != nil {
			return err
		}

		title := "SRC20 " + inst.Address.Hex()
		if dep != nil {
			title = fmt.Sprintf("SRC20 %s (%s)", dep.Name, inst.Address.Hex())
		}
		fmt.Println(ui.KeyValueBlock(title, md.pairs(asset, deploymentDecimals(dep))))
		return nil
	},
}

type assetMetadata struct {
	name, symbol       string
	decimals           uint8
	supply             uint64
	hasName, hasSymbol bool
	hasDecimals        bool
	hasSupply          bool
	totalAssets        uint64
}

func readMetadata(ctx context.Context, inst *src20.Instance, asset src20.AssetID) (assetMetadata, error) {
	var md assetMetadata
	var err error
	if md.name, md.hasName, err = inst.Name(ctx, asset); err != nil {
		return md, err
	}
	if md.symbol, md.hasSymbol, err = inst.Symbol(ctx, asset); err != nil {
		return md, err
	}
	if md.decimals, md.hasDecimals, err = inst.Decimals(ctx, asset); err != nil {
		return md, err
	}
	if md.supply, md.hasSupply, err = inst.TotalSupply(ctx, asset); err != nil {
		return md, err
	}
	if md.totalAssets, err = inst.TotalAssets(ctx); err != nil {
		return md, err
	}
	return md, nil
}

// pairs renders the metadata. fallbackDecimals formats the supply when the
// asset itself reports no decimals.
func (md assetMetadata) pairs(asset src20.AssetID, fallbackDecimals uint8) [][2]string {
	orDash := func(ok bool, v string) string {
		if !ok {
			return ui.Meta("-")
		}
		return v
	}
	decimals := fallbackDecimals
	if md.hasDecimals {
		decimals = md.decimals
	}
	supply := ui.Meta("-")
	if md.hasSupply {
		supply = fmt.Sprintf("%s (%s base units)", ui.FormatAmount(md.supply, decimals), humanize.BigComma(new(big.Int).SetUint64(md.supply)))
	}
	return [][2]string{
		{"Asset ID", asset.String()},
		{"Name", orDash(md.hasName, md.name)},
		{"Symbol", orDash(md.hasSymbol, ui.Token(md.symbol))},
		{"Decimals", orDash(md.hasDecimals, fmt.Sprint(md.decimals))},
		{"Total supply", supply},
		{"Total assets", fmt.Sprint(md.totalAssets)},
	}
}

func deploymentDecimals(dep *contract.Deployment) uint8 {
	if dep == nil {
		return 0
	}
	return dep.Token.Decimals
}

// printTxResult prints a confirmed mint or burn and the asset's new supply.
func printTxResult(cmd *cobra.Command, inst *src20.Instance, dep *contract.Deployment, sub src20.SubID, receipt *chain.TxReceipt) {
	asset := inst.AssetID(sub)
	pairs := [][2]string{
		{"Asset ID", asset.String()},
		{"Tx", receipt.Hash},
		{"Block", fmt.Sprint(receipt.BlockNumber)},
		{"Gas used", fmt.Sprint(receipt.GasUsed)},
	}
	if supply, ok, err := inst.TotalSupply(cmd.Context(), asset); err == nil && ok {
		pairs = append(pairs, [2]string{"Total supply", ui.FormatAmount(supply, deploymentDecimals(dep))})
	}
	fmt.Println(ui.KeyValueBlock("Transaction", pairs))
}

func init() {
	infoCmd.Flags().StringVar(&infoSubID, "sub-id", "", "hex sub id")
	infoCmd.Flags().StringVar(&infoAsset, "asset-id", "", "hex asset id")
}
