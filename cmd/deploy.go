package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/spf13/cobra"
)

var (
	deployName     string
	deploySymbol   string
	deployDecimals uint8
	deploySalt     string
	deployAlias    string
	deployArtifact string
	deployYes      bool
)

// ── deploy ────────────────────────────────────────────────────────────────────

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy an SRC20 token with a random salt",
	Long: `Deploy the compiled SRC20 contract and record it under an alias.

Each deployment uses a fresh random 32-byte salt, so deploying the same
artifact twice yields two independent tokens. The contract is created
through the CREATE2 factory when the node has one, plain CREATE otherwise.
Under CREATE2 the constructor sees the factory as msg.sender; for a build
that records its deployer as owner, run "config set factory_address none".

Name must be 5 ASCII characters and symbol 3, matching the on-chain layout.

Examples:
  src20kit deploy
  src20kit deploy --name MYTKN --symbol MTK --decimals 9 --as mytkn
  src20kit deploy --salt 0x01 --artifact ./out/debug/src20.json --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgs, err := src20.CreateConfigurables(deployName, deploySymbol, deployDecimals)
		if err != nil {
			return err
		}
		if deployArtifact != "" {
			cfg.ArtifactPath = deployArtifact
		}
		alias := deployAlias
		if alias == "" {
			alias = strings.ToLower(cfgs.Symbol)
		}
		var pinned src20.Salt
		if deploySalt != "" {
			if pinned, err = src20.ParseSalt(deploySalt); err != nil {
				return err
			}
			if pinned.IsZero() {
				return fmt.Errorf("--salt must be non-zero; omit it for a random salt")
			}
		}

		var env *src20.Env
		err = spin("Connecting...", func() error {
			var err error
			env, err = src20.NewEnv(cmd.Context(), cfg, keystore())
			return err
		})
		if err != nil {
			return err
		}
		if !pinned.IsZero() {
			env.Salt = pinned
		}
		chainID := env.Provider.ChainID().String()

		fmt.Println(ui.KeyValueBlock("Deploy SRC20", [][2]string{
			{"Node", env.Provider.URL()},
			{"Chain ID", chainID},
			{"Deployer", ui.Addr(env.Wallet.Address().Hex())},
			{"Artifact", env.Artifact.Path},
			{"Token", fmt.Sprintf("%s (%s), %d decimals", cfgs.Name, ui.Token(cfgs.Symbol), cfgs.Decimals)},
			{"Salt", env.Salt.String()},
		}))
		if !deployYes && !ui.Confirm("Deploy?") {
			fmt.Println(ui.Warn("Aborted"))
			return nil
		}

		var inst *src20.Instance
		err = spin("Deploying...", func() error {
			var err error
			inst, err = src20.Deploy(cmd.Context(), env, cfgs)
			return err
		})
		if err != nil {
			return err
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if prev, err := reg.Get(alias, chainID); err == nil {
			fmt.Println(ui.Warn(fmt.Sprintf("Alias %q on chain %s pointed at %s, replacing", alias, chainID, prev.Address)))
		}
		reg.Add(deploymentRecord(alias, chainID, env, inst))
		if err := reg.Save(); err != nil {
			return err
		}

		method := "CREATE"
		if inst.Create2 {
			method = "CREATE2"
		}
		fmt.Println(ui.Success(fmt.Sprintf("Deployed %s at %s", ui.Token(cfgs.Symbol), ui.Addr(inst.Address.Hex()))))
		fmt.Println(ui.KeyValueBlock("Deployment", [][2]string{
			{"Alias", alias},
			{"Contract ID", inst.ContractID.String()},
			{"Default asset", inst.DefaultAssetID().String()},
			{"Salt", inst.Salt.String()},
			{"Method", method},
			{"Tx", inst.DeployTx},
		}))
		fmt.Println(ui.Hint("Mint with: src20kit mint " + alias + " --amount 100"))
		return nil
	},
}

func deploymentRecord(alias, chainID string, env *src20.Env, inst *src20.Instance) *contract.Deployment {
	return &contract.Deployment{
		Name:       alias,
		ChainID:    chainID,
		Address:    inst.Address.Hex(),
		ContractID: inst.ContractID.String(),
		Salt:       inst.Salt.String(),
		TxHash:     inst.DeployTx,
		Deployer:   env.Wallet.Address().Hex(),
		Create2:    inst.Create2,
		Token: contract.TokenMeta{
			Name:     inst.Configurables.Name,
			Symbol:   inst.Configurables.Symbol,
			Decimals: inst.Configurables.Decimals,
		},
		DeployedAt: time.Now().UTC(),
	}
}

func init() {
	defaults := src20.DefaultConfigurables()
	deployCmd.Flags().StringVar(&deployName, "name", defaults.Name, "token name ("+strconv.Itoa(src20.NameLength)+" ASCII chars)")
	deployCmd.Flags().StringVar(&deploySymbol, "symbol", defaults.Symbol, "token symbol ("+strconv.Itoa(src20.SymbolLength)+" ASCII chars)")
	deployCmd.Flags().Uint8Var(&deployDecimals, "decimals", defaults.Decimals, "token decimals")
	deployCmd.Flags().StringVar(&deploySalt, "salt", "", "hex salt (default: random)")
	deployCmd.Flags().StringVar(&deployAlias, "as", "", "alias to record the deployment under (default: lowercase symbol)")
	deployCmd.Flags().StringVar(&deployArtifact, "artifact", "", "compiled contract (overrides artifact_path)")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "skip confirmation")
}
