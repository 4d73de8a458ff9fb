// Package chaintest provides an in-process JSON-RPC node for tests.
package chaintest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// stubCode is installed at every address the node "deploys" to.
var stubCode = []byte{0x60, 0x00, 0x60, 0x00, 0xf3}

// Revert makes a call or transaction fail with reason.
type Revert struct{ Reason string }

func (r *Revert) Error() string { return "execution reverted: " + r.Reason }

// Tx is a transaction the node accepted.
type Tx struct {
	*types.Transaction
	From common.Address
}

// CallFunc answers eth_call.
type CallFunc func(from, to common.Address, data []byte) ([]byte, error)

// TxFunc executes a mined call transaction. A non-nil error marks it reverted.
type TxFunc func(tx Tx) error

// DeployFunc observes a contract creation at addr with its initcode.
type DeployFunc func(addr common.Address, initcode []byte)

// FakeNode is a minimal EVM JSON-RPC node. CREATE and CREATE2 through Factory
// are executed by installing stub code; everything else is delegated to hooks.
type FakeNode struct {
	Server *httptest.Server

	mu          sync.Mutex
	chainID     *big.Int
	block       uint64
	gasPrice    *big.Int
	tip         *big.Int
	noTip       bool
	estimateErr bool
	factory     common.Address
	code        map[common.Address][]byte
	nonces      map[common.Address]uint64
	balances    map[common.Address]*big.Int
	receipts    map[common.Hash]map[string]interface{}
	sent        []Tx
	methods     map[string]int

	OnCall   CallFunc
	OnTx     TxFunc
	OnDeploy DeployFunc
}

// NewFakeNode starts a node on chainID and stops it when the test ends.
func NewFakeNode(t testing.TB, chainID int64) *FakeNode {
	t.Helper()
	n := &FakeNode{
		chainID:  big.NewInt(chainID),
		block:    1,
		gasPrice: big.NewInt(1_000_000_000),
		tip:      big.NewInt(100_000_000),
		code:     map[common.Address][]byte{},
		nonces:   map[common.Address]uint64{},
		balances: map[common.Address]*big.Int{},
		receipts: map[common.Hash]map[string]interface{}{},
		methods:  map[string]int{},
	}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Server.Close)
	return n
}

// URL returns the node's endpoint.
func (n *FakeNode) URL() string { return n.Server.URL }

// InstallFactory puts stub code at addr and routes salt‖initcode calls to it
// through CREATE2.
func (n *FakeNode) InstallFactory(addr common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.factory = addr
	n.code[addr] = stubCode
}

// SetCode sets the code at addr.
func (n *FakeNode) SetCode(addr common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code[addr] = code
}

// SetBalance sets the native balance of addr.
func (n *FakeNode) SetBalance(addr common.Address, wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[addr] = wei
}

// SetGasPrice sets the value returned by eth_gasPrice.
func (n *FakeNode) SetGasPrice(wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasPrice = wei
}

// DisablePriorityFee makes eth_maxPriorityFeePerGas fail.
func (n *FakeNode) DisablePriorityFee() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.noTip = true
}

// FailEstimates makes eth_estimateGas fail.
func (n *FakeNode) FailEstimates() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.estimateErr = true
}

// Sent returns the accepted transactions in order.
func (n *FakeNode) Sent() []Tx {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Tx(nil), n.sent...)
}

// Calls reports how often method was requested.
func (n *FakeNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.methods[method]
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *FakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, rerr := n.dispatch(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (n *FakeNode) dispatch(req request) (interface{}, *rpcErr) {
	n.mu.Lock()
	n.methods[req.Method]++
	n.mu.Unlock()

	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeBig(n.chainID), nil
	case "eth_blockNumber":
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.EncodeUint64(n.block), nil
	case "eth_gasPrice":
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.EncodeBig(n.gasPrice), nil
	case "eth_maxPriorityFeePerGas":
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.noTip {
			return nil, &rpcErr{Code: -32601, Message: "method not found"}
		}
		return hexutil.EncodeBig(n.tip), nil
	case "eth_estimateGas":
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.estimateErr {
			return nil, &rpcErr{Code: -32000, Message: "gas required exceeds allowance"}
		}
		return hexutil.EncodeUint64(100_000), nil
	case "eth_getTransactionCount":
		addr := common.HexToAddress(paramString(req.Params, 0))
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.EncodeUint64(n.nonces[addr]), nil
	case "eth_getBalance":
		addr := common.HexToAddress(paramString(req.Params, 0))
		n.mu.Lock()
		defer n.mu.Unlock()
		bal := n.balances[addr]
		if bal == nil {
			bal = new(big.Int)
		}
		return hexutil.EncodeBig(bal), nil
	case "eth_getCode":
		addr := common.HexToAddress(paramString(req.Params, 0))
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.Encode(n.code[addr]), nil
	case "eth_call":
		return n.call(req.Params)
	case "eth_sendRawTransaction":
		return n.sendRaw(paramString(req.Params, 0))
	case "eth_getTransactionReceipt":
		n.mu.Lock()
		defer n.mu.Unlock()
		rec, ok := n.receipts[common.HexToHash(paramString(req.Params, 0))]
		if !ok {
			return nil, nil
		}
		return rec, nil
	}
	return nil, &rpcErr{Code: -32601, Message: "method not found: " + req.Method}
}

func (n *FakeNode) call(params []json.RawMessage) (interface{}, *rpcErr) {
	var msg struct {
		From string `json:"from"`
		To   string `json:"to"`
		Data string `json:"data"`
	}
	if len(params) == 0 || json.Unmarshal(params[0], &msg) != nil {
		return nil, &rpcErr{Code: -32602, Message: "invalid call params"}
	}
	to := common.HexToAddress(msg.To)

	n.mu.Lock()
	hasCode := len(n.code[to]) > 0
	n.mu.Unlock()
	if !hasCode || n.OnCall == nil {
		return "0x", nil
	}

	data, _ := hexutil.Decode(msg.Data)
	out, err := n.OnCall(common.HexToAddress(msg.From), to, data)
	if err != nil {
		return nil, &rpcErr{Code: 3, Message: err.Error()}
	}
	return hexutil.Encode(out), nil
}

func (n *FakeNode) sendRaw(rawHex string) (interface{}, *rpcErr) {
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, &rpcErr{Code: -32602, Message: "invalid raw tx"}
	}
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, &rpcErr{Code: -32602, Message: err.Error()}
	}
	from, err := types.Sender(types.LatestSignerForChainID(n.chainID), &tx)
	if err != nil {
		return nil, &rpcErr{Code: -32000, Message: "invalid sender: " + err.Error()}
	}

	n.mu.Lock()
	if tx.Nonce() != n.nonces[from] {
		n.mu.Unlock()
		return nil, &rpcErr{Code: -32000, Message: fmt.Sprintf("nonce too low: have %d, want %d", tx.Nonce(), n.nonces[from])}
	}
	n.nonces[from]++
	n.block++
	block := n.block
	n.sent = append(n.sent, Tx{Transaction: &tx, From: from})
	factory := n.factory
	n.mu.Unlock()

	status := uint64(1)
	var created *common.Address
	switch {
	case tx.To() == nil:
		addr := crypto.CreateAddress(from, tx.Nonce())
		n.deploy(addr, tx.Data())
		created = &addr
	case factory != (common.Address{}) && *tx.To() == factory:
		if len(tx.Data()) < 32 {
			status = 0
			break
		}
		var salt [32]byte
		copy(salt[:], tx.Data()[:32])
		initcode := tx.Data()[32:]
		addr := crypto.CreateAddress2(factory, salt, crypto.Keccak256(initcode))
		n.mu.Lock()
		exists := len(n.code[addr]) > 0
		n.mu.Unlock()
		if exists {
			status = 0
			break
		}
		n.deploy(addr, initcode)
	default:
		if n.OnTx != nil && n.OnTx(Tx{Transaction: &tx, From: from}) != nil {
			status = 0
		}
	}

	rec := map[string]interface{}{
		"transactionHash": tx.Hash().Hex(),
		"status":          hexutil.EncodeUint64(status),
		"blockNumber":     hexutil.EncodeUint64(block),
		"gasUsed":         hexutil.EncodeUint64(tx.Gas() / 2),
		"contractAddress": nil,
	}
	if created != nil {
		rec["contractAddress"] = strings.ToLower(created.Hex())
	}

	n.mu.Lock()
	n.receipts[tx.Hash()] = rec
	n.mu.Unlock()

	return tx.Hash().Hex(), nil
}

func (n *FakeNode) deploy(addr common.Address, initcode []byte) {
	n.mu.Lock()
	n.code[addr] = stubCode
	n.mu.Unlock()
	if n.OnDeploy != nil {
		n.OnDeploy(addr, initcode)
	}
}

func paramString(params []json.RawMessage, i int) string {
	if i >= len(params) {
		return ""
	}
	var s string
	json.Unmarshal(params[i], &s) //nolint:errcheck
	return s
}
