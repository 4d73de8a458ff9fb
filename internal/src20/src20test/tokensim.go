// Package src20test runs the SRC20 contract ABI in memory on top of a
// chaintest.FakeNode, so harness and command tests need no real chain.
package src20test

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/chain/chaintest"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test accounts. Never fund them on a real network.
const (
	PrivKeyHex      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	SignerAddr      = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	OtherPrivKeyHex = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	OtherAddr       = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// Bytecode is the runtime-less stub the artifact from WriteArtifact carries.
var Bytecode = []byte{0x60, 0x80, 0x60, 0x40, 0x52}

// TokenSim executes the SRC20 ABI on top of a FakeNode.
type TokenSim struct {
	Node *chaintest.FakeNode
	abi  *contract.Parsed

	mu     sync.Mutex
	tokens map[common.Address]*tokenState
}

type tokenState struct {
	name, symbol string
	decimals     uint8
	supply       map[[32]byte]uint64
	balances     map[common.Address]map[[32]byte]uint64
	order        [][32]byte
}

// NewTokenSim starts a FakeNode on chain 31337 whose deployments behave like
// SRC20 tokens.
func NewTokenSim(t testing.TB) *TokenSim {
	t.Helper()
	p, err := contract.BuiltinABI("src20")
	require.NoError(t, err)

	s := &TokenSim{
		Node:   chaintest.NewFakeNode(t, 31337),
		abi:    p,
		tokens: map[common.Address]*tokenState{},
	}
	s.Node.OnDeploy = s.deploy
	s.Node.OnCall = s.call
	s.Node.OnTx = s.tx
	return s
}

func (s *TokenSim) deploy(addr common.Address, initcode []byte) {
	st := &tokenState{supply: map[[32]byte]uint64{}, balances: map[common.Address]map[[32]byte]uint64{}}
	if len(initcode) > len(Bytecode) {
		args, err := s.abi.ABI.Constructor.Inputs.Unpack(initcode[len(Bytecode):])
		if err == nil {
			st.name, st.symbol, st.decimals = args[0].(string), args[1].(string), args[2].(uint8)
		}
	}
	s.mu.Lock()
	s.tokens[addr] = st
	s.mu.Unlock()
}

func assetOf(contractAddr common.Address, sub [32]byte) [32]byte {
	var id [32]byte
	copy(id[12:], contractAddr.Bytes())
	return sha256.Sum256(append(id[:], sub[:]...))
}

// decode resolves calldata to its method and arguments. Anything the ABI
// cannot decode reverts, as it would on chain.
func (s *TokenSim) decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, &chaintest.Revert{Reason: "calldata shorter than a selector"}
	}
	m, err := s.abi.ABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, &chaintest.Revert{Reason: "unknown selector"}
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, &chaintest.Revert{Reason: err.Error()}
	}
	return m, args, nil
}

func (s *TokenSim) call(from, to common.Address, data []byte) ([]byte, error) {
	m, args, err := s.decode(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.tokens[to]
	if st == nil {
		return nil, &chaintest.Revert{Reason: "not an SRC20"}
	}
	defAsset := assetOf(to, [32]byte{})

	switch m.Name {
	case "total_assets":
		return m.Outputs.Pack(uint64(len(st.order)))
	case "total_supply":
		supply, ok := st.supply[args[0].([32]byte)]
		return m.Outputs.Pack(ok, supply)
	case "name":
		asset := args[0].([32]byte)
		return m.Outputs.Pack(asset == defAsset, ifTrue(asset == defAsset, st.name))
	case "symbol":
		asset := args[0].([32]byte)
		return m.Outputs.Pack(asset == defAsset, ifTrue(asset == defAsset, st.symbol))
	case "decimals":
		asset := args[0].([32]byte)
		if asset != defAsset {
			return m.Outputs.Pack(false, uint8(0))
		}
		return m.Outputs.Pack(true, st.decimals)
	}
	return nil, &chaintest.Revert{Reason: "not a read method: " + m.Name}
}

func (s *TokenSim) tx(tx chaintest.Tx) error {
	m, args, err := s.decode(tx.Data())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	to := *tx.To()
	st := s.tokens[to]
	if st == nil {
		return &chaintest.Revert{Reason: "not an SRC20"}
	}

	switch m.Name {
	case "mint":
		recipient, sub, amount := args[0].(common.Address), args[1].([32]byte), args[2].(uint64)
		asset := assetOf(to, sub)
		if _, seen := st.supply[asset]; !seen {
			st.order = append(st.order, asset)
		}
		st.supply[asset] += amount
		if st.balances[recipient] == nil {
			st.balances[recipient] = map[[32]byte]uint64{}
		}
		st.balances[recipient][asset] += amount
		return nil
	case "burn":
		sub, amount := args[0].([32]byte), args[1].(uint64)
		asset := assetOf(to, sub)
		if st.balances[tx.From][asset] < amount {
			return &chaintest.Revert{Reason: "NotEnoughCoins"}
		}
		st.balances[tx.From][asset] -= amount
		st.supply[asset] -= amount
		return nil
	}
	return &chaintest.Revert{Reason: "not a write method: " + m.Name}
}

// BalanceOf returns owner's balance of asset in the token at addr.
func (s *TokenSim) BalanceOf(addr, owner common.Address, asset [32]byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.tokens[addr]
	if st == nil {
		return 0
	}
	return st.balances[owner][asset]
}

func ifTrue(ok bool, v string) string {
	if ok {
		return v
	}
	return ""
}

// WriteArtifact stores a Hardhat-style artifact for the built-in ABI and
// returns its path.
func WriteArtifact(t testing.TB) string {
	t.Helper()
	b, ok := contract.GetBuiltin("src20")
	require.True(t, ok)

	data, err := json.Marshal(map[string]interface{}{
		"contractName": "SRC20",
		"abi":          b.ABI,
		"bytecode":     fmt.Sprintf("0x%x", Bytecode),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "src20.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
