package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/provider"
	"github.com/Mohsinsiddi/src20kit/internal/sync"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	deploymentsChain  string
	deploymentsVerify bool
	deploymentsOut    string
	deploymentsFormat string
)

var deploymentsCmd = &cobra.Command{
	Use:     "deployments",
	Aliases: []string{"deps"},
	Short:   "Manage recorded deployments",
}

// ── deployments list ──────────────────────────────────────────────────────────

var deploymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deployments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		deps := reg.All()
		if deploymentsChain != "" {
			deps = reg.ForChain(deploymentsChain)
		}
		if len(deps) == 0 {
			fmt.Println(ui.Meta("No deployments recorded."))
			fmt.Println(ui.Hint("Deploy one with: src20kit deploy"))
			return nil
		}
		fmt.Println(deploymentsTable(deps).Render())
		return nil
	},
}

func deploymentsTable(deps []*contract.Deployment) *ui.Table {
	t := ui.NewTable(
		ui.Column{Title: "Alias", Width: 14},
		ui.Column{Title: "Chain", Width: 10},
		ui.Column{Title: "Token", Width: 12},
		ui.Column{Title: "Address", Width: 44},
		ui.Column{Title: "Deployed", Width: 20},
	)
	for _, d := range deps {
		t.AddRow(d.Name, d.ChainID, d.Token.Name+" ("+d.Token.Symbol+")", d.Address, humanize.Time(d.DeployedAt))
	}
	return t
}

// ── deployments show ──────────────────────────────────────────────────────────

var deploymentsShowCmd = &cobra.Command{
	Use:   "show <alias>",
	Short: "Show one deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		d, err := findDeployment(reg, args[0], deploymentsChain)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Deployment "+d.Name, deploymentPairs(d)))
		return nil
	},
}

func deploymentPairs(d *contract.Deployment) [][2]string {
	method := "CREATE"
	if d.Create2 {
		method = "CREATE2"
	}
	return [][2]string{
		{"Chain ID", d.ChainID},
		{"Address", ui.Addr(d.Address)},
		{"Contract ID", d.ContractID},
		{"Token", fmt.Sprintf("%s (%s), %d decimals", d.Token.Name, ui.Token(d.Token.Symbol), d.Token.Decimals)},
		{"Salt", d.Salt},
		{"Method", method},
		{"Deployer", d.Deployer},
		{"Tx", d.TxHash},
		{"Deployed at", d.DeployedAt.Format("2006-01-02 15:04:05 MST") + " (" + humanize.Time(d.DeployedAt) + ")"},
	}
}

// ── deployments remove ────────────────────────────────────────────────────────

var deploymentsRemoveCmd = &cobra.Command{
	Use:     "remove <alias>",
	Aliases: []string{"rm"},
	Short:   "Forget a deployment (the contract stays on chain)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		d, err := findDeployment(reg, args[0], deploymentsChain)
		if err != nil {
			return err
		}
		if err := reg.Remove(d.Name, d.ChainID); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed %q on chain %s", d.Name, d.ChainID)))
		return nil
	},
}

// ── deployments pick ──────────────────────────────────────────────────────────

var deploymentsPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick a deployment interactively and print its address",
	Long: `Open a list of recorded deployments and print the chosen address,
so it can feed other commands:

  src20kit info $(src20kit deployments pick)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		deps := reg.All()
		if deploymentsChain != "" {
			deps = reg.ForChain(deploymentsChain)
		}
		items := make([]ui.PickerItem, len(deps))
		for i, d := range deps {
			items[i] = ui.PickerItem{
				Label:    fmt.Sprintf("%s  %s", d.Name, ui.Token(d.Token.Symbol)),
				SubLabel: "chain " + d.ChainID + "  " + d.Address,
				Value:    d.Address,
			}
		}
		addr, err := ui.PickItem("Deployments", items)
		if err != nil {
			return err
		}
		if addr == "" {
			return nil
		}
		fmt.Println(strings.TrimSpace(addr))
		return nil
	},
}

// ── deployments sync ──────────────────────────────────────────────────────────

var deploymentsSyncCmd = &cobra.Command{
	Use:   "sync <url|file>",
	Short: "Import deployments from a shared manifest",
	Long: `Merge a deployments manifest (as written by "deployments export") into
the local registry. Entries with the same alias and chain are replaced.

With --verify the selected node is asked for code at every address on its
chain, and entries with none are skipped.

Examples:
  src20kit deployments sync https://ci.example.com/artifacts/deployments.json
  src20kit deployments sync ./deployments.shared.json --verify`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		var verifier *sync.Verifier
		if deploymentsVerify {
			ctx, cancel := context.WithTimeout(cmd.Context(), config.NodeSelectTimeout)
			defer cancel()
			prov, err := provider.Connect(ctx, cfg.NodeURLs, provider.Algorithm(cfg.NodeAlgorithm))
			if err != nil {
				return err
			}
			verifier = &sync.Verifier{ChainID: prov.ChainID().String(), Client: prov.Client()}
		}

		var res sync.Result
		err = spin("Syncing...", func() error {
			var err error
			res, err = sync.New(reg).Run(cmd.Context(), args[0], verifier)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Synced: %d added, %d updated, %d unchanged, %d skipped", res.Added, res.Updated, res.Unchanged, res.Skipped)))
		return nil
	},
}

// ── deployments export ────────────────────────────────────────────────────────

var deploymentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the registry as a shareable manifest",
	Long: `Write recorded deployments as a manifest that "deployments sync" can
import on another machine. Writes to stdout unless -o is given. The format
is JSON unless --format yaml is set or -o ends in .yaml / .yml.

Examples:
  src20kit deployments export --chain 31337 -o deployments.shared.json
  src20kit deployments export --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		m := sync.Export(reg, deploymentsChain)
		write, err := manifestWriter(m, deploymentsFormat, deploymentsOut)
		if err != nil {
			return err
		}
		if deploymentsOut == "" {
			return write(os.Stdout)
		}
		f, err := os.OpenFile(deploymentsOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Exported %d alias(es) to %s", len(m.Deployments), deploymentsOut)))
		return nil
	},
}

func manifestWriter(m sync.Manifest, format, out string) (func(io.Writer) error, error) {
	if format == "" {
		format = "json"
		if ext := strings.ToLower(filepath.Ext(out)); ext == ".yaml" || ext == ".yml" {
			format = "yaml"
		}
	}
	switch format {
	case "json":
		return m.Write, nil
	case "yaml":
		return m.WriteYAML, nil
	}
	return nil, fmt.Errorf("unknown format %q (json or yaml)", format)
}

func init() {
	deploymentsCmd.PersistentFlags().StringVar(&deploymentsChain, "chain", "", "restrict to a chain id")
	deploymentsSyncCmd.Flags().BoolVar(&deploymentsVerify, "verify", false, "skip entries with no code on the selected node's chain")
	deploymentsExportCmd.Flags().StringVarP(&deploymentsOut, "output", "o", "", "write to file instead of stdout")
	deploymentsExportCmd.Flags().StringVar(&deploymentsFormat, "format", "", "json or yaml (default: from -o extension, else json)")
	deploymentsCmd.AddCommand(
		deploymentsListCmd,
		deploymentsShowCmd,
		deploymentsRemoveCmd,
		deploymentsPickCmd,
		deploymentsSyncCmd,
		deploymentsExportCmd,
	)
}
