package integration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/test/fixtures"
	"github.com/palantir/stacktrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These run against a real node, e.g.
//
//	SRC20_NODE_URL=http://127.0.0.1:8545 SRC20_SECRET_KEY=0x... \
//	SRC20_ARTIFACT=./out/debug/src20.json go test ./test/integration/

func deployToken(t *testing.T) *src20.Instance {
	t.Helper()
	inst, err := src20.DeployDefault(context.Background(), fixtures.LiveEnv(t))
	require.NoError(t, err)
	return inst
}

func TestLiveMetadata(t *testing.T) {
	inst := deployToken(t)
	ctx := context.Background()
	asset := inst.DefaultAssetID()

	name, ok, err := inst.Name(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MYTKN", name)

	symbol, ok, err := inst.Symbol(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MTK", symbol)

	decimals, ok, err := inst.Decimals(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint8(9), decimals)
}

func TestLiveMintIncreasesSupply(t *testing.T) {
	inst := deployToken(t)
	ctx := context.Background()
	asset := inst.DefaultAssetID()

	_, ok, err := inst.TotalSupply(ctx, asset)
	require.NoError(t, err)
	assert.False(t, ok, "nothing minted yet")

	_, err = inst.Mint(ctx, src20.AddressIdentity(inst.Wallet.Address()), src20.DefaultSubID, 100)
	require.NoError(t, err)

	supply, ok, err := inst.TotalSupply(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), supply)

	n, err := inst.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestLiveBurnDecreasesSupply(t *testing.T) {
	inst := deployToken(t)
	ctx := context.Background()

	_, err := inst.Mint(ctx, src20.AddressIdentity(inst.Wallet.Address()), src20.DefaultSubID, 100)
	require.NoError(t, err)
	_, err = inst.Burn(ctx, src20.DefaultSubID, 40)
	require.NoError(t, err)

	supply, _, err := inst.TotalSupply(ctx, inst.DefaultAssetID())
	require.NoError(t, err)
	assert.Equal(t, uint64(60), supply)
}

func TestLiveBurnMoreThanHeldReverts(t *testing.T) {
	inst := deployToken(t)
	ctx := context.Background()

	_, err := inst.Mint(ctx, src20.AddressIdentity(inst.Wallet.Address()), src20.DefaultSubID, 1)
	require.NoError(t, err)
	_, err = inst.Burn(ctx, src20.DefaultSubID, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(stacktrace.RootCause(err), chain.ErrReverted))
}

func TestLiveSeparateDeploymentsAreIndependent(t *testing.T) {
	env := fixtures.LiveEnv(t)
	ctx := context.Background()

	a, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)
	b, err := src20.DeployDefault(ctx, env)
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
	assert.NotEqual(t, a.DefaultAssetID(), b.DefaultAssetID())

	_, err = a.Mint(ctx, src20.AddressIdentity(env.Wallet.Address()), src20.DefaultSubID, 5)
	require.NoError(t, err)
	_, ok, err := b.TotalSupply(ctx, b.DefaultAssetID())
	require.NoError(t, err)
	assert.False(t, ok)
}
