package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/chain/chaintest"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0 — never fund on mainnet.
const testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var testFactory = common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.FromSecretKey(testPrivKeyHex)
	require.NoError(t, err)
	return w
}

func src20(t *testing.T) *Parsed {
	t.Helper()
	p, err := BuiltinABI("src20")
	require.NoError(t, err)
	return p
}

func deployRequest(t *testing.T, salt byte) DeployRequest {
	var s [32]byte
	s[31] = salt
	return DeployRequest{
		ABI:             src20(t),
		Bytecode:        []byte{0x60, 0x80, 0x60, 0x40},
		ConstructorArgs: []interface{}{"MYTKN", "MTK", uint8(9)},
		Salt:            s,
	}
}

// ---------------------------------------------------------------------------
// InitCode / PredictAddress
// ---------------------------------------------------------------------------

func TestInitCodeAppendsConstructorArgs(t *testing.T) {
	code := []byte{0xaa, 0xbb}
	initcode, err := InitCode(src20(t), code, "MYTKN", "MTK", uint8(9))
	require.NoError(t, err)

	assert.Equal(t, code, initcode[:2])
	assert.Greater(t, len(initcode), 2+3*32)
	assert.Equal(t, []byte{0xaa, 0xbb}, code, "input bytecode must not be modified")
}

func TestPredictAddressMatchesCreate2(t *testing.T) {
	d := NewDeployer(nil, testWallet(t), big.NewInt(1), WithFactory(testFactory))
	initcode := []byte{0x01, 0x02}
	var salt [32]byte
	salt[0] = 9

	want := crypto.CreateAddress2(testFactory, salt, crypto.Keccak256(initcode))
	assert.Equal(t, want, d.PredictAddress(initcode, salt))

	salt[0] = 10
	assert.NotEqual(t, want, d.PredictAddress(initcode, salt), "salt must change the address")
}

// ---------------------------------------------------------------------------
// Deploy
// ---------------------------------------------------------------------------

func TestDeployCreate2(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	node.InstallFactory(testFactory)
	w := testWallet(t)
	d := NewDeployer(chain.NewEVMClient(node.URL()), w, big.NewInt(31337), WithFactory(testFactory))

	req := deployRequest(t, 1)
	res, err := d.Deploy(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Create2)

	initcode, err := InitCode(req.ABI, req.Bytecode, req.ConstructorArgs...)
	require.NoError(t, err)
	assert.Equal(t, d.PredictAddress(initcode, req.Salt), res.Address)

	sent := node.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, testFactory, *sent[0].To())
	assert.Equal(t, req.Salt[:], sent[0].Data()[:32])
	assert.Equal(t, initcode, sent[0].Data()[32:])
	assert.Equal(t, w.Address(), sent[0].From)
	assert.Equal(t, uint64(120_000), sent[0].Gas(), "estimate plus 20%")
}

func TestDeploySameSaltTwice(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	node.InstallFactory(testFactory)
	d := NewDeployer(chain.NewEVMClient(node.URL()), testWallet(t), big.NewInt(31337), WithFactory(testFactory))

	_, err := d.Deploy(context.Background(), deployRequest(t, 1))
	require.NoError(t, err)

	_, err = d.Deploy(context.Background(), deployRequest(t, 1))
	assert.True(t, errors.Is(err, ErrAlreadyDeployed))
	assert.Len(t, node.Sent(), 1, "no transaction for an occupied address")

	res, err := d.Deploy(context.Background(), deployRequest(t, 2))
	require.NoError(t, err)
	assert.True(t, res.Create2)
}

func TestDeployFallsBackToCreate(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	w := testWallet(t)
	d := NewDeployer(chain.NewEVMClient(node.URL()), w, big.NewInt(31337), WithFactory(testFactory))

	res, err := d.Deploy(context.Background(), deployRequest(t, 1))
	require.NoError(t, err)
	assert.False(t, res.Create2)
	assert.Equal(t, crypto.CreateAddress(w.Address(), 0), res.Address)

	sent := node.Sent()
	require.Len(t, sent, 1)
	assert.Nil(t, sent[0].To())
}

func TestDeployWithoutFactory(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	node.InstallFactory(testFactory)
	d := NewDeployer(chain.NewEVMClient(node.URL()), testWallet(t), big.NewInt(31337))

	res, err := d.Deploy(context.Background(), deployRequest(t, 1))
	require.NoError(t, err)
	assert.False(t, res.Create2)
	assert.Equal(t, 1, node.Calls("eth_getCode"), "only the post-deploy verification reads code")
}

func TestDeployFallbackGas(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	node.FailEstimates()
	d := NewDeployer(chain.NewEVMClient(node.URL()), testWallet(t), big.NewInt(31337), WithFallbackGas(2_500_000))

	_, err := d.Deploy(context.Background(), deployRequest(t, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000), node.Sent()[0].Gas())
}

func TestDeployExplicitGasLimit(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	d := NewDeployer(chain.NewEVMClient(node.URL()), testWallet(t), big.NewInt(31337))

	req := deployRequest(t, 1)
	req.Policies.GasLimit = 777_000
	_, err := d.Deploy(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(777_000), node.Sent()[0].Gas())
	assert.Equal(t, 0, node.Calls("eth_estimateGas"))
}

func TestDeployMaxFeeExceeded(t *testing.T) {
	node := chaintest.NewFakeNode(t, 31337)
	d := NewDeployer(chain.NewEVMClient(node.URL()), testWallet(t), big.NewInt(31337))

	req := deployRequest(t, 1)
	req.Policies.MaxFee = big.NewInt(1000)
	_, err := d.Deploy(context.Background(), req)
	assert.True(t, errors.Is(err, ErrFeeExceedsMax))
	assert.Empty(t, node.Sent())
}

func TestDeployEmptyBytecode(t *testing.T) {
	d := NewDeployer(nil, testWallet(t), big.NewInt(1))
	req := deployRequest(t, 1)
	req.Bytecode = nil
	_, err := d.Deploy(context.Background(), req)
	assert.True(t, errors.Is(err, ErrNoBytecode))
}

func TestDeployBadConstructorArgs(t *testing.T) {
	d := NewDeployer(nil, testWallet(t), big.NewInt(1))
	req := deployRequest(t, 1)
	req.ConstructorArgs = []interface{}{"MYTKN"}
	_, err := d.Deploy(context.Background(), req)
	assert.ErrorContains(t, err, "constructor")
}
