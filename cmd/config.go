package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

// ── config show ───────────────────────────────────────────────────────────────

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the effective configuration (file plus environment)",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := make([][2]string, 0, len(config.Keys()))
		for _, k := range config.Keys() {
			v, err := cfg.Get(k)
			if err != nil {
				return err
			}
			if v == "" {
				v = ui.Meta("-")
			}
			pairs = append(pairs, [2]string{k, v})
		}
		fmt.Println(ui.KeyValueBlock("Configuration", pairs))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

// ── config set ────────────────────────────────────────────────────────────────

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key",
	Long: `Set a key in config.json. Environment overrides are not written back.

Examples:
  src20kit config set node_urls http://127.0.0.1:8545,http://127.0.0.1:9545
  src20kit config set node_algorithm fastest
  src20kit config set factory_address none
  src20kit config set max_fee_wei 10000000000000000`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := config.LoadFile(cfg.Dir())
		if err != nil {
			return err
		}
		if err := fileCfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := fileCfg.Save(); err != nil {
			return err
		}
		v, _ := fileCfg.Get(args[0])
		fmt.Println(ui.Success(fmt.Sprintf("%s = %s", args[0], v)))
		return nil
	},
}

// ── config get ────────────────────────────────────────────────────────────────

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

// ── config path ───────────────────────────────────────────────────────────────

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(cfg.Dir())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configGetCmd, configPathCmd)
}
