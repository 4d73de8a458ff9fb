package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoCode is returned when a call target has no contract code.
var ErrNoCode = errors.New("no contract code at address")

// Caller calls read-only contract functions through eth_call.
type Caller struct {
	client *chain.EVMClient
	abi    *Parsed
	from   common.Address
}

// NewCaller creates a Caller. from is used as the call's sender.
func NewCaller(client *chain.EVMClient, parsed *Parsed, from common.Address) *Caller {
	return &Caller{client: client, abi: parsed, from: from}
}

// Call invokes a read function on addr and returns its decoded outputs.
func (c *Caller) Call(ctx context.Context, addr common.Address, method string, args ...interface{}) ([]interface{}, error) {
	fn, err := c.abi.Entry(method)
	if err != nil {
		return nil, err
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("%w: %s (stateMutability: %s)", ErrNotReadMethod, method, fn.StateMutability)
	}

	calldata, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	result, err := c.client.Call(ctx, chain.CallMsg{
		From: c.from.Hex(),
		To:   addr.Hex(),
		Data: calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(result) == 0 && len(fn.Outputs) > 0 {
		return nil, fmt.Errorf("%w: %s returned no data from %s", ErrNoCode, method, addr.Hex())
	}

	return c.abi.Unpack(method, result)
}
