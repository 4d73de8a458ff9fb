package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyDeployed is returned when code already exists at the CREATE2
// address for a bytecode/salt pair.
var ErrAlreadyDeployed = errors.New("contract already deployed at this address")

const defaultDeployGas = 3_000_000

// DeployRequest describes one deployment.
type DeployRequest struct {
	ABI             *Parsed
	Bytecode        []byte
	ConstructorArgs []interface{}
	Salt            [32]byte
	Policies        TxPolicies
}

// DeployResult reports where a contract landed.
type DeployResult struct {
	Address common.Address
	Receipt *chain.TxReceipt
	Create2 bool // false when the factory was missing and plain CREATE was used
}

// Deployer deploys contracts through a CREATE2 factory, falling back to plain
// CREATE when the factory has no code on the chain.
type Deployer struct {
	client      *chain.EVMClient
	signer      Signer
	chainID     *big.Int
	factory     common.Address
	fallbackGas uint64
}

// DeployerOption configures a Deployer.
type DeployerOption func(*Deployer)

// WithFactory sets the CREATE2 factory. The zero address disables CREATE2.
func WithFactory(addr common.Address) DeployerOption {
	return func(d *Deployer) { d.factory = addr }
}

// WithFallbackGas sets the gas limit used when estimation fails.
func WithFallbackGas(gas uint64) DeployerOption {
	return func(d *Deployer) {
		if gas > 0 {
			d.fallbackGas = gas
		}
	}
}

// NewDeployer creates a Deployer.
func NewDeployer(client *chain.EVMClient, signer Signer, chainID *big.Int, opts ...DeployerOption) *Deployer {
	d := &Deployer{client: client, signer: signer, chainID: chainID, fallbackGas: defaultDeployGas}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InitCode returns bytecode followed by the packed constructor arguments.
func InitCode(parsed *Parsed, bytecode []byte, args ...interface{}) ([]byte, error) {
	packed, err := parsed.Pack("", args...)
	if err != nil {
		return nil, err
	}
	return append(bytes.Clone(bytecode), packed...), nil
}

// PredictAddress returns the CREATE2 address of initcode deployed with salt
// through the configured factory.
func (d *Deployer) PredictAddress(initcode []byte, salt [32]byte) common.Address {
	return crypto.CreateAddress2(d.factory, salt, crypto.Keccak256(initcode))
}

// Deploy sends the deployment, waits for it and verifies code at the result.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if len(req.Bytecode) == 0 {
		return nil, ErrNoBytecode
	}
	initcode, err := InitCode(req.ABI, req.Bytecode, req.ConstructorArgs...)
	if err != nil {
		return nil, err
	}

	create2, err := d.factoryAvailable(ctx)
	if err != nil {
		return nil, err
	}

	var (
		to       *common.Address
		data     []byte
		expected common.Address
	)
	if create2 {
		expected = d.PredictAddress(initcode, req.Salt)
		code, err := d.client.GetCode(ctx, expected.Hex())
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", expected.Hex(), err)
		}
		if len(code) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyDeployed, expected.Hex())
		}
		// msg.sender inside the constructor is the factory.
		factory := d.factory
		to = &factory
		data = append(req.Salt[:], initcode...)
	} else {
		logrus.WithField("factory", d.factory.Hex()).Debug("no CREATE2 factory on chain, using CREATE")
		data = initcode
	}

	policies := req.Policies
	if policies.GasLimit == 0 {
		policies.GasLimit = d.estimate(ctx, to, data)
	}

	receipt, err := sendTx(ctx, d.client, d.signer, d.chainID, to, data, policies, "deploy")
	if err != nil {
		return nil, err
	}

	addr := expected
	if !create2 {
		if receipt.ContractAddress == "" {
			return nil, fmt.Errorf("deploy receipt %s carries no contract address", receipt.Hash)
		}
		addr = common.HexToAddress(receipt.ContractAddress)
	}

	code, err := d.client.GetCode(ctx, addr.Hex())
	if err != nil {
		return nil, fmt.Errorf("verifying deployment: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s after deploy tx %s", ErrNoCode, addr.Hex(), receipt.Hash)
	}

	return &DeployResult{Address: addr, Receipt: receipt, Create2: create2}, nil
}

func (d *Deployer) factoryAvailable(ctx context.Context) (bool, error) {
	if d.factory == (common.Address{}) {
		return false, nil
	}
	code, err := d.client.GetCode(ctx, d.factory.Hex())
	if err != nil {
		return false, fmt.Errorf("checking factory %s: %w", d.factory.Hex(), err)
	}
	return len(code) > 0, nil
}

// estimate returns estimated gas plus 20%, or the fallback when the node
// cannot estimate.
func (d *Deployer) estimate(ctx context.Context, to *common.Address, data []byte) uint64 {
	msg := chain.CallMsg{From: d.signer.Address().Hex(), Data: data}
	if to != nil {
		msg.To = to.Hex()
	}
	gas, err := d.client.EstimateGas(ctx, msg)
	if err != nil || gas == 0 {
		logrus.WithError(err).WithField("fallback", d.fallbackGas).Debug("deploy gas estimation failed")
		return d.fallbackGas
	}
	return gas + gas/5
}
