package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// ErrFeeExceedsMax is returned when a transaction's worst-case fee exceeds
// the configured cap.
var ErrFeeExceedsMax = errors.New("transaction fee exceeds max fee")

// Signer signs transactions for a single account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// TxPolicies bound a single transaction.
type TxPolicies struct {
	GasLimit uint64        // zero means estimate
	MaxFee   *big.Int      // wei cap on gas*feeCap; nil means uncapped
	Timeout  time.Duration // receipt wait; zero means the caller's default
}

const defaultReceiptTimeout = 2 * time.Minute

// Transactor sends state-changing calls and waits for them to be mined.
type Transactor struct {
	client  *chain.EVMClient
	abi     *Parsed
	signer  Signer
	chainID *big.Int
}

// NewTransactor creates a Transactor.
func NewTransactor(client *chain.EVMClient, parsed *Parsed, signer Signer, chainID *big.Int) *Transactor {
	return &Transactor{client: client, abi: parsed, signer: signer, chainID: chainID}
}

// Transact calls method on addr and returns the mined receipt. A reverted
// transaction returns its receipt along with chain.ErrReverted.
func (t *Transactor) Transact(ctx context.Context, addr common.Address, method string, policies TxPolicies, args ...interface{}) (*chain.TxReceipt, error) {
	fn, err := t.abi.Entry(method)
	if err != nil {
		return nil, err
	}
	if !fn.IsWriteFunction() {
		return nil, fmt.Errorf("%w: %s", ErrNotWriteMethod, method)
	}

	calldata, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	return sendTx(ctx, t.client, t.signer, t.chainID, &addr, calldata, policies, method)
}

// sendTx builds, signs and broadcasts an EIP-1559 transaction, then waits
// for its receipt. to == nil creates a contract.
func sendTx(ctx context.Context, client *chain.EVMClient, signer Signer, chainID *big.Int, to *common.Address, data []byte, policies TxPolicies, label string) (*chain.TxReceipt, error) {
	from := signer.Address()

	gas := policies.GasLimit
	if gas == 0 {
		msg := chain.CallMsg{From: from.Hex(), Data: data}
		if to != nil {
			msg.To = to.Hex()
		}
		estimated, err := client.EstimateGas(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("estimating gas for %s: %w", label, err)
		}
		gas = estimated + estimated/5
	}

	tip, feeCap, err := suggestFees(ctx, client)
	if err != nil {
		return nil, err
	}
	if err := checkMaxFee(gas, feeCap, policies.MaxFee); err != nil {
		return nil, err
	}

	nonce, err := client.GetNonce(ctx, from.Hex())
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     big.NewInt(0),
		Data:      data,
	})

	raw, err := signer.SignTx(tx, chainID)
	if err != nil {
		return nil, err
	}

	hash, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("broadcasting %s: %w", label, err)
	}

	log := logrus.WithFields(logrus.Fields{"tx": hash, "call": label, "gas": gas, "nonce": nonce})
	log.Debug("transaction sent")

	timeout := policies.Timeout
	if timeout == 0 {
		timeout = defaultReceiptTimeout
	}
	receipt, err := client.WaitForReceipt(ctx, hash, timeout)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", label, err)
	}

	log.WithFields(logrus.Fields{"block": receipt.BlockNumber, "gas_used": receipt.GasUsed}).Debug("transaction mined")
	return receipt, nil
}

// suggestFees returns the priority tip and the fee cap (2x gas price, never below the tip).
func suggestFees(ctx context.Context, client *chain.EVMClient) (tip, feeCap *big.Int, err error) {
	gasPrice, err := client.GasPrice(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("getting gas price: %w", err)
	}

	tip, err = client.MaxPriorityFee(ctx)
	if err != nil {
		// Node predates eth_maxPriorityFeePerGas.
		tip = new(big.Int).Set(gasPrice)
	}

	feeCap = new(big.Int).Mul(gasPrice, big.NewInt(2))
	if feeCap.Cmp(tip) < 0 {
		feeCap = new(big.Int).Add(feeCap, tip)
	}
	return tip, feeCap, nil
}

func checkMaxFee(gas uint64, feeCap, maxFee *big.Int) error {
	if maxFee == nil || maxFee.Sign() == 0 {
		return nil
	}
	worst := new(big.Int).Mul(new(big.Int).SetUint64(gas), feeCap)
	if worst.Cmp(maxFee) > 0 {
		return fmt.Errorf("%w: up to %s wei, cap %s wei", ErrFeeExceedsMax, worst, maxFee)
	}
	return nil
}
