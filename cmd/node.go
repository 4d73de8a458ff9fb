package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/provider"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect configured nodes",
}

// ── node status ───────────────────────────────────────────────────────────────

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Benchmark every configured node and show which would be used",
	Long: `Ping each node in node_urls in parallel and report latency and head
block. The node marked ★ is the one node_algorithm would select.

Examples:
  src20kit node status
  src20kit node status --node http://127.0.0.1:8545,http://127.0.0.1:9545`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.NodeSelectTimeout)
		defer cancel()

		var endpoints []provider.Endpoint
		_ = spin("Benchmarking nodes...", func() error {
			endpoints = provider.Benchmark(ctx, cfg.NodeURLs)
			return nil
		})

		picker := provider.NewPicker(provider.Algorithm(cfg.NodeAlgorithm))
		selected := ""
		if winner, err := picker.Pick(endpoints); err == nil {
			selected = winner.URL
		}

		fmt.Println(ui.Meta("Algorithm: " + string(picker.Algorithm())))
		fmt.Println(nodeTable(endpoints, selected).Render())
		if selected == "" {
			return provider.ErrNoHealthyNode
		}
		return nil
	},
}

func nodeTable(endpoints []provider.Endpoint, selected string) *ui.Table {
	t := ui.NewTable(
		ui.Column{Title: "", Width: 2},
		ui.Column{Title: "Node", Width: 40},
		ui.Column{Title: "Latency", Width: 10},
		ui.Column{Title: "Block", Width: 12},
		ui.Column{Title: "Status", Width: 48},
	)
	for _, e := range endpoints {
		mark := ""
		if e.URL == selected {
			mark = "★"
		}
		status, latency, block := "down", "-", "-"
		if e.Healthy {
			status = "ok"
			latency = e.Latency.Round(time.Millisecond).String()
			block = fmt.Sprint(e.BlockNumber)
		} else if e.Err != nil {
			status = "down: " + e.Err.Error()
		}
		t.AddRow(mark, e.URL, latency, block, status)
	}
	return t
}

// ── node balance ──────────────────────────────────────────────────────────────

var nodeBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet's native balance on the selected node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.Load(cfg.SecretKey, cfg.KeyRef, keystore())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.NodeSelectTimeout)
		defer cancel()
		prov, err := provider.Connect(ctx, cfg.NodeURLs, provider.Algorithm(cfg.NodeAlgorithm))
		if err != nil {
			return err
		}
		bal, err := w.Balance(cmd.Context(), prov.Client())
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Wallet", [][2]string{
			{"Address", ui.Addr(w.Address().Hex())},
			{"Node", prov.URL()},
			{"Chain ID", prov.ChainID().String()},
			{"Balance", ui.Val(chain.WeiToETH(bal))},
		}))
		return nil
	},
}

func init() {
	nodeCmd.AddCommand(nodeStatusCmd, nodeBalanceCmd)
}
