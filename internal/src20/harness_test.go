package src20_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/provider"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/src20/src20test"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/palantir/stacktrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harnessConfig points a fresh config at sim's node, the test key and a
// freshly written artifact.
func harnessConfig(t *testing.T, sim *src20test.TokenSim) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.NodeURLs = []string{sim.Node.URL()}
	cfg.SecretKey = src20test.PrivKeyHex
	cfg.KeyRef = ""
	cfg.ArtifactPath = src20test.WriteArtifact(t)
	cfg.MaxFeeWei = ""
	return cfg
}

// newHarness returns a simulated chain with the CREATE2 factory installed and
// an Env connected to it.
func newHarness(t *testing.T) (*src20test.TokenSim, *src20.Env) {
	t.Helper()
	sim := src20test.NewTokenSim(t)
	sim.Node.InstallFactory(common.HexToAddress(config.DeterministicDeployer))

	env, err := src20.NewEnv(context.Background(), harnessConfig(t, sim), wallet.NewInMemoryKeystore())
	require.NoError(t, err)
	return sim, env
}

func rootIs(err, target error) bool {
	return errors.Is(stacktrace.RootCause(err), target)
}

// ---------------------------------------------------------------------------
// Setup
// ---------------------------------------------------------------------------

func TestGetWalletProviderSalt(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	cfg := harnessConfig(t, sim)

	prov, w, salt, err := src20.GetWalletProviderSalt(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, sim.Node.URL(), prov.URL())
	assert.Equal(t, int64(31337), prov.ChainID().Int64())
	assert.Equal(t, src20test.SignerAddr, w.Address().Hex())
	assert.False(t, salt.IsZero())
}

func TestGetWalletProviderSaltFromKeystore(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	cfg := harnessConfig(t, sim)
	ks := wallet.NewInMemoryKeystore()
	ref, err := ks.Store("deployer", src20test.PrivKeyHex)
	require.NoError(t, err)
	cfg.SecretKey = ""
	cfg.KeyRef = ref

	_, w, _, err := src20.GetWalletProviderSalt(context.Background(), cfg, ks)
	require.NoError(t, err)
	assert.Equal(t, src20test.SignerAddr, w.Address().Hex())
}

func TestGetWalletProviderSaltErrors(t *testing.T) {
	sim := src20test.NewTokenSim(t)

	noKey := harnessConfig(t, sim)
	noKey.SecretKey = ""
	_, _, _, err := src20.GetWalletProviderSalt(context.Background(), noKey, nil)
	assert.True(t, rootIs(err, wallet.ErrNoSecret))

	badKey := harnessConfig(t, sim)
	badKey.SecretKey = "<your secret pass goes here>"
	_, _, _, err = src20.GetWalletProviderSalt(context.Background(), badKey, nil)
	assert.True(t, rootIs(err, wallet.ErrInvalidKey))

	noNode := harnessConfig(t, sim)
	noNode.NodeURLs = []string{"http://127.0.0.1:1"}
	_, _, _, err = src20.GetWalletProviderSalt(context.Background(), noNode, nil)
	assert.True(t, rootIs(err, provider.ErrNoHealthyNode))
}

func TestNewEnvMissingArtifact(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	cfg := harnessConfig(t, sim)
	cfg.ArtifactPath = "/does/not/exist.json"

	_, err := src20.NewEnv(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does/not/exist.json")
}

func TestNewEnvCarriesConfig(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	cfg := harnessConfig(t, sim)
	require.NoError(t, cfg.Set("gas_limit", "500000"))
	require.NoError(t, cfg.Set("max_fee_wei", "123"))

	env, err := src20.NewEnv(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), env.GasLimit)
	assert.Equal(t, int64(123), env.MaxFee.Int64())
	assert.Equal(t, common.HexToAddress(config.DeterministicDeployer), env.Factory)
	assert.Equal(t, src20test.Bytecode, env.Artifact.Bytecode)
}

func TestEnvsGetDistinctRunIDs(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	a, err := src20.NewEnv(context.Background(), harnessConfig(t, sim), nil)
	require.NoError(t, err)
	b, err := src20.NewAttachEnv(context.Background(), harnessConfig(t, sim), nil)
	require.NoError(t, err)

	_, err = uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

// ---------------------------------------------------------------------------
// Deploy
// ---------------------------------------------------------------------------

func TestDeployDefault(t *testing.T) {
	sim, env := newHarness(t)
	salt := env.Salt

	inst, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)

	assert.True(t, inst.Create2)
	assert.Equal(t, salt, inst.Salt)
	assert.NotEqual(t, salt, env.Salt, "env salt must be rotated after a deployment")
	assert.Equal(t, inst.ContractID.Address(), inst.Address)
	assert.NotEmpty(t, inst.DeployTx)
	assert.Equal(t, uint64(config.DefaultGasLimit), inst.GasLimit)
	assert.Equal(t, src20.DefaultConfigurables(), inst.Configurables)

	sent := sim.Node.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, common.HexToAddress(config.DeterministicDeployer), *sent[0].To())
	assert.Equal(t, salt[:], sent[0].Data()[:32])
}

func TestRepeatedDeploysGetDistinctAddresses(t *testing.T) {
	_, env := newHarness(t)

	a, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)
	b, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
	assert.NotEqual(t, a.Salt, b.Salt)
}

func TestDeployReplayedSaltIsRejected(t *testing.T) {
	_, env := newHarness(t)
	salt, err := src20.ParseSalt("0x2a")
	require.NoError(t, err)

	env.Salt = salt
	_, err = src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)

	env.Salt = salt
	_, err = src20.DeployDefault(context.Background(), env)
	require.Error(t, err)
	assert.True(t, rootIs(err, contract.ErrAlreadyDeployed))
}

func TestDeployWithoutFactoryUsesCreate(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	cfg := harnessConfig(t, sim)
	require.NoError(t, cfg.Set("factory_address", config.FactoryNone))

	env, err := src20.NewEnv(context.Background(), cfg, nil)
	require.NoError(t, err)
	inst, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)
	assert.False(t, inst.Create2)
	assert.Nil(t, sim.Node.Sent()[0].To())
}

func TestDeployRejectsInvalidConfigurables(t *testing.T) {
	sim, env := newHarness(t)

	_, err := src20.Deploy(context.Background(), env, src20.Configurables{Name: "TOOLONG", Symbol: "MTK", Decimals: 9})
	assert.True(t, rootIs(err, src20.ErrInvalidConfigurable))
	assert.Empty(t, sim.Node.Sent())
}

func TestDeployMaxFee(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	sim.Node.InstallFactory(common.HexToAddress(config.DeterministicDeployer))
	cfg := harnessConfig(t, sim)
	require.NoError(t, cfg.Set("max_fee_wei", "1"))

	env, err := src20.NewEnv(context.Background(), cfg, nil)
	require.NoError(t, err)
	_, err = src20.DeployDefault(context.Background(), env)
	assert.True(t, rootIs(err, contract.ErrFeeExceedsMax))
	assert.Empty(t, sim.Node.Sent())
}

func TestDeployZeroMaxFeeIsUncapped(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	sim.Node.InstallFactory(common.HexToAddress(config.DeterministicDeployer))
	cfg := harnessConfig(t, sim)
	require.NoError(t, cfg.Set("max_fee_wei", "0"))

	env, err := src20.NewEnv(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, env.MaxFee)

	inst, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)
	_, err = inst.Mint(context.Background(), src20.AddressIdentity(env.Wallet.Address()), src20.SubID{}, 10)
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestReadsReflectConfigurables(t *testing.T) {
	_, env := newHarness(t)
	cfgs, err := src20.CreateConfigurables("ABCDE", "XYZ", 18)
	require.NoError(t, err)

	inst, err := src20.Deploy(context.Background(), env, cfgs)
	require.NoError(t, err)
	ctx := context.Background()
	asset := inst.DefaultAssetID()

	name, ok, err := inst.Name(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ABCDE", name)

	symbol, ok, err := inst.Symbol(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "XYZ", symbol)

	decimals, ok, err := inst.Decimals(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint8(18), decimals)
}

func TestReadsUnknownAsset(t *testing.T) {
	_, env := newHarness(t)
	inst, err := src20.DeployDefault(context.Background(), env)
	require.NoError(t, err)
	ctx := context.Background()

	sub, err := src20.ParseSubID("0x01")
	require.NoError(t, err)
	other := inst.AssetID(sub)

	name, ok, err := inst.Name(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	supply, ok, err := inst.TotalSupply(ctx, inst.DefaultAssetID())
	require.NoError(t, err)
	assert.False(t, ok, "nothing minted yet")
	assert.Zero(t, supply)

	assert.Equal(t, src20.AssetID{}, inst.BaseAssetID())
}

func TestReadAgainstNonContract(t *testing.T) {
	_, env := newHarness(t)
	inst := src20.Attach(env, src20.ContractIDFromAddress(common.HexToAddress("0x1234")))

	_, _, err := inst.Name(context.Background(), inst.DefaultAssetID())
	assert.True(t, rootIs(err, contract.ErrNoCode))
}

// ---------------------------------------------------------------------------
// Mint / Burn
// ---------------------------------------------------------------------------

func TestMintAndBurnAdjustSupply(t *testing.T) {
	_, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)
	asset := inst.DefaultAssetID()

	receipt, err := inst.Mint(ctx, src20.AddressIdentity(env.Wallet.Address()), src20.DefaultSubID, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)

	supply, ok, err := inst.TotalSupply(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), supply)

	_, err = inst.Burn(ctx, src20.DefaultSubID, 40)
	require.NoError(t, err)

	supply, _, err = inst.TotalSupply(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), supply)

	assets, err := inst.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), assets)
}

func TestMintSubIDsAreSeparateAssets(t *testing.T) {
	_, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)

	sub, err := src20.ParseSubID("0x01")
	require.NoError(t, err)
	me := src20.AddressIdentity(env.Wallet.Address())

	_, err = inst.Mint(ctx, me, src20.DefaultSubID, 5)
	require.NoError(t, err)
	_, err = inst.Mint(ctx, me, sub, 7)
	require.NoError(t, err)

	assets, err := inst.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), assets)

	supply, ok, err := inst.TotalSupply(ctx, inst.AssetID(sub))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), supply)
}

func TestBurnMoreThanHeldReverts(t *testing.T) {
	_, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)

	_, err = inst.Mint(ctx, src20.AddressIdentity(env.Wallet.Address()), src20.DefaultSubID, 10)
	require.NoError(t, err)

	receipt, err := inst.Burn(ctx, src20.DefaultSubID, 11)
	require.Error(t, err)
	assert.True(t, rootIs(err, chain.ErrReverted))
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(0), receipt.Status)

	supply, _, err := inst.TotalSupply(ctx, inst.DefaultAssetID())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), supply)
}

func TestWithWalletSignsAsOtherAccount(t *testing.T) {
	sim, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)

	other, err := wallet.FromSecretKey(src20test.OtherPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, src20test.OtherAddr, other.Address().Hex())
	asOther := inst.WithWallet(other)
	assert.Equal(t, env.Wallet, inst.Wallet, "original instance is unchanged")

	_, err = inst.Mint(ctx, src20.AddressIdentity(other.Address()), src20.DefaultSubID, 3)
	require.NoError(t, err)

	// The deployer holds nothing, the other account holds 3.
	_, err = inst.Burn(ctx, src20.DefaultSubID, 1)
	assert.True(t, rootIs(err, chain.ErrReverted))
	assert.Equal(t, uint64(3), sim.BalanceOf(inst.Address, other.Address(), [32]byte(inst.DefaultAssetID())))
	_, err = asOther.Burn(ctx, src20.DefaultSubID, 3)
	require.NoError(t, err)
	assert.Zero(t, sim.BalanceOf(inst.Address, other.Address(), [32]byte(inst.DefaultAssetID())))

	sent := sim.Node.Sent()
	assert.Equal(t, other.Address(), sent[len(sent)-1].From)
}

func TestWithGasLimit(t *testing.T) {
	sim, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)

	_, err = inst.WithGasLimit(250_000).Mint(ctx, src20.AddressIdentity(env.Wallet.Address()), src20.DefaultSubID, 1)
	require.NoError(t, err)

	sent := sim.Node.Sent()
	assert.Equal(t, uint64(250_000), sent[len(sent)-1].Gas())
	assert.Equal(t, uint64(config.DefaultGasLimit), inst.GasLimit)
}

func TestZeroAmountRejectedLocally(t *testing.T) {
	sim, env := newHarness(t)
	ctx := context.Background()
	inst, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)
	before := len(sim.Node.Sent())

	_, err = inst.Mint(ctx, src20.AddressIdentity(env.Wallet.Address()), src20.DefaultSubID, 0)
	assert.True(t, rootIs(err, src20.ErrZeroAmount))
	_, err = inst.Burn(ctx, src20.DefaultSubID, 0)
	assert.True(t, rootIs(err, src20.ErrZeroAmount))
	assert.Len(t, sim.Node.Sent(), before)
}

// ---------------------------------------------------------------------------
// Attach
// ---------------------------------------------------------------------------

func TestAttachEnvReadsDeployedToken(t *testing.T) {
	sim, env := newHarness(t)
	ctx := context.Background()
	deployed, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)

	attachEnv, err := src20.NewAttachEnv(ctx, harnessConfig(t, sim), nil)
	require.NoError(t, err)
	inst := src20.Attach(attachEnv, deployed.ContractID)

	symbol, ok, err := inst.Symbol(ctx, inst.DefaultAssetID())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MTK", symbol)
}

func TestDeployWithoutArtifact(t *testing.T) {
	sim := src20test.NewTokenSim(t)
	env, err := src20.NewAttachEnv(context.Background(), harnessConfig(t, sim), nil)
	require.NoError(t, err)

	_, err = src20.DeployDefault(context.Background(), env)
	assert.ErrorContains(t, err, "No contract artifact loaded")
}
