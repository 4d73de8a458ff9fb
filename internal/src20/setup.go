package src20

import (
	"context"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/provider"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
)

// Env is everything a deployment needs: a node, an unlocked wallet, the next
// salt to deploy with and the compiled contract.
type Env struct {
	// RunID tags every log line of one harness run so interleaved CI logs
	// can be told apart.
	RunID    string
	Provider *provider.Provider
	Wallet   *wallet.Wallet
	Salt     Salt
	Artifact *contract.Artifact
	ABI      *contract.Parsed
	Factory  common.Address

	GasLimit       uint64
	DeployGasLimit uint64 // fallback when estimation fails
	MaxFee         *big.Int
	ConfirmTimeout time.Duration
	DeployTimeout  time.Duration
}

// GetWalletProviderSalt connects to a configured node, unlocks the wallet and
// draws a fresh random salt.
func GetWalletProviderSalt(ctx context.Context, cfg *config.Config, ks wallet.KeystoreBackend) (*provider.Provider, *wallet.Wallet, Salt, error) {
	selectCtx, cancel := context.WithTimeout(ctx, config.NodeSelectTimeout)
	defer cancel()

	prov, err := provider.Connect(selectCtx, cfg.NodeURLs, provider.Algorithm(cfg.NodeAlgorithm))
	if err != nil {
		return nil, nil, Salt{}, stacktrace.Propagate(err, "An error occurred connecting to a node")
	}

	w, err := wallet.Load(cfg.SecretKey, cfg.KeyRef, ks)
	if err != nil {
		return nil, nil, Salt{}, stacktrace.Propagate(err, "An error occurred loading the wallet")
	}

	salt, err := NewRandomSalt()
	if err != nil {
		return nil, nil, Salt{}, stacktrace.Propagate(err, "An error occurred drawing the deployment salt")
	}

	logrus.WithFields(logrus.Fields{
		"node":   prov.URL(),
		"wallet": w.Address().Hex(),
	}).Debug("Wallet, provider and salt ready")
	return prov, w, salt, nil
}

// NewEnv performs the full setup from cfg: node, wallet, salt and artifact.
func NewEnv(ctx context.Context, cfg *config.Config, ks wallet.KeystoreBackend) (*Env, error) {
	prov, w, salt, err := GetWalletProviderSalt(ctx, cfg, ks)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred setting up the harness")
	}

	maxFee, err := cfg.MaxFee()
	if err != nil {
		return nil, stacktrace.Propagate(err, "Invalid max fee in config")
	}
	factory, err := cfg.Factory()
	if err != nil {
		return nil, stacktrace.Propagate(err, "Invalid factory address in config")
	}

	env := &Env{
		RunID:          uuid.New().String(),
		Provider:       prov,
		Wallet:         w,
		Salt:           salt,
		Factory:        factory,
		GasLimit:       cfg.GasLimit,
		DeployGasLimit: cfg.DeployGasLimit,
		MaxFee:         maxFee,
		ConfirmTimeout: config.TxConfirmTimeout,
		DeployTimeout:  config.TxDeployTimeout,
	}
	artifact, err := cfg.Artifact()
	if err != nil {
		return nil, stacktrace.Propagate(err, "Invalid artifact path in config")
	}
	if err := env.LoadArtifact(artifact); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred loading the contract artifact")
	}
	return env, nil
}

// NewAttachEnv is NewEnv without the artifact, for working with contracts that
// are already deployed.
func NewAttachEnv(ctx context.Context, cfg *config.Config, ks wallet.KeystoreBackend) (*Env, error) {
	prov, w, salt, err := GetWalletProviderSalt(ctx, cfg, ks)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred setting up the harness")
	}
	maxFee, err := cfg.MaxFee()
	if err != nil {
		return nil, stacktrace.Propagate(err, "Invalid max fee in config")
	}
	parsed, err := contract.BuiltinABI("src20")
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred parsing the SRC20 ABI")
	}
	return &Env{
		RunID:          uuid.New().String(),
		Provider:       prov,
		Wallet:         w,
		Salt:           salt,
		ABI:            parsed,
		GasLimit:       cfg.GasLimit,
		MaxFee:         maxFee,
		ConfirmTimeout: config.TxConfirmTimeout,
		DeployTimeout:  config.TxDeployTimeout,
	}, nil
}

// LoadArtifact reads the compiled contract at path. Calls are always encoded
// with the built-in SRC20 ABI; methods the artifact lacks are logged.
func (e *Env) LoadArtifact(path string) error {
	art, err := contract.LoadArtifact(path)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred reading artifact '%v'", path)
	}
	parsed, err := contract.BuiltinABI("src20")
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred parsing the SRC20 ABI")
	}

	have := map[string]bool{}
	for _, entry := range art.ABI {
		if entry.Type == "function" {
			have[entry.Signature()] = true
		}
	}
	for _, entry := range parsed.Entries {
		if entry.Type == "function" && !have[entry.Signature()] {
			e.logger().Warnf("Artifact '%v' does not declare %v", path, entry.Signature())
		}
	}

	e.Artifact = art
	e.ABI = parsed
	return nil
}

// nextSalt returns the salt for the coming deployment and draws a new one, so
// repeated deployments from one Env never collide.
func (e *Env) nextSalt() (Salt, error) {
	salt := e.Salt
	if salt.IsZero() {
		s, err := NewRandomSalt()
		if err != nil {
			return Salt{}, err
		}
		salt = s
	}
	next, err := NewRandomSalt()
	if err != nil {
		return Salt{}, err
	}
	e.Salt = next
	return salt, nil
}

func (e *Env) logger() *logrus.Entry {
	return logrus.WithField("run", e.RunID)
}

func (e *Env) policies(gasLimit uint64, timeout time.Duration) contract.TxPolicies {
	return contract.TxPolicies{GasLimit: gasLimit, MaxFee: e.MaxFee, Timeout: timeout}
}

// Deploy deploys the artifact with configurables and the env's salt and
// returns an instance bound to the env's wallet.
func Deploy(ctx context.Context, env *Env, cfgs Configurables) (*Instance, error) {
	if env.Artifact == nil || env.ABI == nil {
		return nil, stacktrace.NewError("No contract artifact loaded")
	}
	if _, err := CreateConfigurables(cfgs.Name, cfgs.Symbol, cfgs.Decimals); err != nil {
		return nil, stacktrace.Propagate(err, "Refusing to deploy with invalid configurables")
	}

	salt, err := env.nextSalt()
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred drawing the deployment salt")
	}

	log := env.logger().WithFields(logrus.Fields{
		"salt":     salt.String(),
		"name":     cfgs.Name,
		"symbol":   cfgs.Symbol,
		"decimals": cfgs.Decimals,
	})
	log.Info("Deploying SRC20 contract...")

	deployer := contract.NewDeployer(
		env.Provider.Client(), env.Wallet, env.Provider.ChainID(),
		contract.WithFactory(env.Factory),
		contract.WithFallbackGas(env.DeployGasLimit),
	)
	res, err := deployer.Deploy(ctx, contract.DeployRequest{
		ABI:             env.ABI,
		Bytecode:        env.Artifact.Bytecode,
		ConstructorArgs: cfgs.constructorArgs(),
		Salt:            salt,
		Policies:        env.policies(0, env.DeployTimeout),
	})
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deploying the SRC20 contract with salt '%v'", salt)
	}

	inst := Attach(env, ContractIDFromAddress(res.Address))
	inst.Salt = salt
	inst.DeployTx = res.Receipt.Hash
	inst.Create2 = res.Create2
	inst.Configurables = cfgs

	log.WithFields(logrus.Fields{
		"address": res.Address.Hex(),
		"tx":      res.Receipt.Hash,
		"create2": res.Create2,
	}).Info("SRC20 contract deployed")
	return inst, nil
}

// DeployDefault deploys with DefaultConfigurables.
func DeployDefault(ctx context.Context, env *Env) (*Instance, error) {
	return Deploy(ctx, env, DefaultConfigurables())
}

// Attach returns an instance for an already-deployed contract.
func Attach(env *Env, id ContractID) *Instance {
	gas := env.GasLimit
	if gas == 0 {
		gas = config.DefaultGasLimit
	}
	return &Instance{
		ContractID: id,
		Address:    id.Address(),
		Wallet:     env.Wallet,
		GasLimit:   gas,
		env:        env,
	}
}
