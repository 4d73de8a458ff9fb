package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the signing key in the OS keychain",
}

// ── key import ────────────────────────────────────────────────────────────────

var keyImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Store a secret key in the OS keychain and use it by default",
	Long: `Read a hex secret key from stdin, store it in the OS keychain and set
key_ref so later commands unlock it without SRC20_SECRET_KEY.

Examples:
  echo $SRC20_SECRET_KEY | src20kit key import dev
  src20kit key import dev < ./dev.key`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return err
		}
		w, err := wallet.FromSecretKey(secret)
		if err != nil {
			return err
		}

		ref, err := wallet.DefaultKeystore().Store(args[0], secret)
		if err != nil {
			return err
		}
		fileCfg, err := config.LoadFile(cfg.Dir())
		if err != nil {
			return err
		}
		fileCfg.KeyRef = ref
		if err := fileCfg.Save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Key %q stored for %s", args[0], ui.Addr(w.Address().Hex()))))
		if fileCfg.SecretKey != "" {
			fmt.Println(ui.Warn("secret_key is also set in config.json and takes precedence over the keychain"))
		}
		return nil
	},
}

// ── key remove ────────────────────────────────────────────────────────────────

var keyRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the configured key from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := config.LoadFile(cfg.Dir())
		if err != nil {
			return err
		}
		if fileCfg.KeyRef == "" {
			fmt.Println(ui.Meta("No key_ref configured."))
			return nil
		}
		if err := wallet.DefaultKeystore().Delete(fileCfg.KeyRef); err != nil {
			return err
		}
		ref := fileCfg.KeyRef
		fileCfg.KeyRef = ""
		if err := fileCfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Removed " + ref))
		return nil
	},
}

// readSecret takes the first non-empty line of r.
func readSecret(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprint(os.Stderr, "Secret key: ")
		}
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", wallet.ErrNoSecret
}

func init() {
	keyCmd.AddCommand(keyImportCmd, keyRemoveCmd)
}
