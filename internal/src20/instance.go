package src20

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/Mohsinsiddi/src20kit/internal/contract"
	"github.com/Mohsinsiddi/src20kit/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
)

// ErrZeroAmount is returned for mints and burns of nothing.
var ErrZeroAmount = errors.New("amount must be greater than zero")

// Instance is a deployed SRC20 contract bound to a wallet.
type Instance struct {
	ContractID    ContractID
	Address       common.Address
	Wallet        *wallet.Wallet
	GasLimit      uint64
	Salt          Salt
	DeployTx      string
	Create2       bool
	Configurables Configurables

	env *Env
}

// WithWallet returns a copy of the instance that signs and calls as w.
func (i *Instance) WithWallet(w *wallet.Wallet) *Instance {
	cp := *i
	cp.Wallet = w
	return &cp
}

// WithGasLimit returns a copy of the instance using gas for every call.
func (i *Instance) WithGasLimit(gas uint64) *Instance {
	cp := *i
	cp.GasLimit = gas
	return &cp
}

// DefaultAssetID is the asset minted under DefaultSubID.
func (i *Instance) DefaultAssetID() AssetID { return DefaultAssetID(i.ContractID) }

// AssetID is the asset minted under sub.
func (i *Instance) AssetID(sub SubID) AssetID { return AssetIDFor(sub, i.ContractID) }

// BaseAssetID is the chain's native asset.
func (i *Instance) BaseAssetID() AssetID { return AssetID(i.env.Provider.BaseAssetID()) }

// Name returns the asset's name. ok is false when the contract does not know asset.
func (i *Instance) Name(ctx context.Context, asset AssetID) (string, bool, error) {
	return readOption[string](ctx, i, "name", asset)
}

// Symbol returns the asset's symbol.
func (i *Instance) Symbol(ctx context.Context, asset AssetID) (string, bool, error) {
	return readOption[string](ctx, i, "symbol", asset)
}

// Decimals returns the asset's decimals.
func (i *Instance) Decimals(ctx context.Context, asset AssetID) (uint8, bool, error) {
	return readOption[uint8](ctx, i, "decimals", asset)
}

// TotalSupply returns the asset's circulating supply.
func (i *Instance) TotalSupply(ctx context.Context, asset AssetID) (uint64, bool, error) {
	return readOption[uint64](ctx, i, "total_supply", asset)
}

// TotalAssets returns how many distinct assets the contract has minted.
func (i *Instance) TotalAssets(ctx context.Context) (uint64, error) {
	out, err := i.caller().Call(ctx, i.Address, "total_assets")
	if err != nil {
		return 0, stacktrace.Propagate(err, "An error occurred calling total_assets on '%v'", i.Address.Hex())
	}
	if len(out) != 1 {
		return 0, stacktrace.NewError("total_assets returned %d values, want 1", len(out))
	}
	n, ok := out[0].(uint64)
	if !ok {
		return 0, stacktrace.NewError("total_assets returned %T, want uint64", out[0])
	}
	return n, nil
}

// Mint creates amount of the sub asset for recipient.
func (i *Instance) Mint(ctx context.Context, recipient Identity, sub SubID, amount uint64) (*chain.TxReceipt, error) {
	if amount == 0 {
		return nil, stacktrace.Propagate(ErrZeroAmount, "Refusing to mint to %v", recipient)
	}
	log := i.env.logger().WithFields(logrus.Fields{
		"contract":  i.Address.Hex(),
		"recipient": recipient.String(),
		"sub_id":    sub.String(),
		"amount":    amount,
	})
	log.Info("Minting...")

	receipt, err := i.transactor().Transact(ctx, i.Address, "mint", i.env.policies(i.GasLimit, i.env.ConfirmTimeout),
		recipient.Address(), [32]byte(sub), amount)
	if err != nil {
		return receipt, stacktrace.Propagate(err, "An error occurred minting %d of sub id '%v'", amount, sub)
	}

	log.WithField("tx", receipt.Hash).Info("Minted")
	return receipt, nil
}

// Burn destroys amount of the sub asset held by the instance's wallet.
func (i *Instance) Burn(ctx context.Context, sub SubID, amount uint64) (*chain.TxReceipt, error) {
	if amount == 0 {
		return nil, stacktrace.Propagate(ErrZeroAmount, "Refusing to burn from %v", i.Wallet.Address().Hex())
	}
	log := i.env.logger().WithFields(logrus.Fields{
		"contract": i.Address.Hex(),
		"sub_id":   sub.String(),
		"amount":   amount,
	})
	log.Info("Burning...")

	receipt, err := i.transactor().Transact(ctx, i.Address, "burn", i.env.policies(i.GasLimit, i.env.ConfirmTimeout),
		[32]byte(sub), amount)
	if err != nil {
		return receipt, stacktrace.Propagate(err, "An error occurred burning %d of sub id '%v'", amount, sub)
	}

	log.WithField("tx", receipt.Hash).Info("Burned")
	return receipt, nil
}

func (i *Instance) caller() *contract.Caller {
	return contract.NewCaller(i.env.Provider.Client(), i.env.ABI, i.Wallet.Address())
}

func (i *Instance) transactor() *contract.Transactor {
	return contract.NewTransactor(i.env.Provider.Client(), i.env.ABI, i.Wallet, i.env.Provider.ChainID())
}

// readOption calls a method returning (bool found, T value).
func readOption[T any](ctx context.Context, i *Instance, method string, asset AssetID) (T, bool, error) {
	var zero T
	out, err := i.caller().Call(ctx, i.Address, method, [32]byte(asset))
	if err != nil {
		return zero, false, stacktrace.Propagate(err, "An error occurred calling %v on '%v'", method, i.Address.Hex())
	}
	if len(out) != 2 {
		return zero, false, stacktrace.NewError("%v returned %d values, want 2", method, len(out))
	}
	found, ok := out[0].(bool)
	if !ok {
		return zero, false, stacktrace.NewError("%v returned %T as its presence flag", method, out[0])
	}
	if !found {
		return zero, false, nil
	}
	v, ok := out[1].(T)
	if !ok {
		return zero, false, stacktrace.NewError("%v returned %T, want %T", method, out[1], zero)
	}
	i.env.logger().Debugf("%v(%v) = %v", method, asset, v)
	return v, true, nil
}
