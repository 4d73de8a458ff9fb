package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/src20kit/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir   string
	cfg      *config.Config
	verbose  bool
	nodeURLs []string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "src20kit",
	Short: "Deploy and exercise SRC20 tokens",
	Long: `src20kit — deploy an SRC20 multi-asset token with a random salt and
drive it from the terminal: mint, burn and read name, symbol, decimals and
supply per asset.

Configuration lives in ~/.src20kit/config.json and can be overridden per
invocation with SRC20_* environment variables or --node.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if len(nodeURLs) > 0 {
			cfg.NodeURLs = nodeURLs
		}
		return setupLogging(cfg.LogLevel, verbose)
	},
}

// Execute runs the root command. Interrupts cancel in-flight node calls.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		os.Exit(1)
	}
}

// setupLogging configures logrus for the whole process. Logs go to stderr so
// stdout carries only command output.
func setupLogging(level string, verbose bool) error {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   false,
		FullTimestamp: true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return nil
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}

func init() {
	// SRC20_CONFIG_DIR env var overrides the --config default.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.src20kit)")
	rootCmd.PersistentFlags().StringSliceVar(&nodeURLs, "node", nil, "node URL(s), overrides node_urls for this run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		deployCmd,
		mintCmd,
		burnCmd,
		infoCmd,
		assetIDCmd,
		deploymentsCmd,
		nodeCmd,
		keyCmd,
		configCmd,
	)
}
