package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/ui"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
)

// keystore opens the OS keychain only when the config actually needs it, so
// commands run from a plain SRC20_SECRET_KEY never trigger a keychain prompt.
func keystore() wallet.KeystoreBackend {
	if cfg.SecretKey != "" || cfg.KeyRef == "" {
		return nil
	}
	return wallet.DefaultKeystore()
}

func loadRegistry() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.DeploymentsPath())
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("loading deployments: %w", err)
	}
	return reg, nil
}

// spin runs fn behind a spinner unless progress is already being logged.
func spin(msg string, fn func() error) error {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		return fn()
	}
	return ui.Run(msg, fn)
}

// resolveInstance connects to the node and binds ref, a deployment alias on
// the connected chain or a contract address / id.
func resolveInstance(ctx context.Context, ref string) (*src20.Instance, *contract.Deployment, error) {
	var env *src20.Env
	err := spin("Connecting...", func() error {
		var err error
		env, err = src20.NewAttachEnv(ctx, cfg, keystore())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, err
	}
	chainID := env.Provider.ChainID().String()

	if d, err := reg.Get(ref, chainID); err == nil {
		id, err := src20.ParseContractID(d.Address)
		if err != nil {
			return nil, nil, err
		}
		inst := src20.Attach(env, id)
		inst.Configurables = src20.Configurables{Name: d.Token.Name, Symbol: d.Token.Symbol, Decimals: d.Token.Decimals}
		return inst, d, nil
	}

	id, err := src20.ParseContractID(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("%q is neither a deployment on chain %s nor a contract address", ref, chainID)
	}
	d, _ := reg.FindByAddress(id.Address().Hex(), chainID)
	return src20.Attach(env, id), d, nil
}

// findDeployment looks an alias up across chains; chainID narrows the search.
func findDeployment(reg *contract.Registry, alias, chainID string) (*contract.Deployment, error) {
	if chainID != "" {
		return reg.Get(alias, chainID)
	}
	var matches []*contract.Deployment
	for _, d := range reg.All() {
		if d.Name == alias {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", contract.ErrDeploymentNotFound, alias)
	case 1:
		return matches[0], nil
	}
	chains := make([]string, len(matches))
	for i, d := range matches {
		chains[i] = d.ChainID
	}
	sort.Strings(chains)
	return nil, fmt.Errorf("%q exists on chains %s, pick one with --chain", alias, strings.Join(chains, ", "))
}

// parseRecipient accepts a 20-byte address or a 32-byte contract id.
func parseRecipient(s string) (src20.Identity, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	id, err := src20.ParseContractID(s)
	if err != nil {
		return src20.Identity{}, fmt.Errorf("invalid recipient %q: want an address or a contract id", s)
	}
	if len(raw) == 64 {
		return src20.ContractIdentity(id), nil
	}
	return src20.AddressIdentity(id.Address()), nil
}

// renderError prints the root cause first; the full stack only with --verbose.
func renderError(err error) string {
	root := stacktrace.RootCause(err)
	msg := ui.Err(root.Error())
	if verbose && root.Error() != err.Error() {
		msg += "\n" + ui.Meta(err.Error())
	}
	switch {
	case errors.Is(root, wallet.ErrNoSecret):
		msg += "\n" + ui.Hint("set SRC20_SECRET_KEY or run: src20kit key import <name>")
	case errors.Is(root, contract.ErrAlreadyDeployed):
		msg += "\n" + ui.Hint("drop --salt to deploy with a fresh random salt")
	}
	return msg
}
