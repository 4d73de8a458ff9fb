package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// ErrReverted is returned when a call or mined transaction reverted.
var ErrReverted = errors.New("execution reverted")

// EVMClient is a minimal JSON-RPC client for EVM nodes.
type EVMClient struct {
	url          string
	client       *http.Client
	pollInterval time.Duration
}

// Option configures an EVMClient.
type Option func(*EVMClient)

// WithPollInterval sets how often WaitForReceipt polls (default 2 s).
func WithPollInterval(d time.Duration) Option {
	return func(c *EVMClient) { c.pollInterval = d }
}

// WithHTTPClient replaces the default 15 s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EVMClient) { c.client = hc }
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string, opts ...Option) *EVMClient {
	c := &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// CallMsg describes an eth_call / eth_estimateGas request.
// An empty To means contract creation.
type CallMsg struct {
	From  string
	To    string
	Data  []byte
	Value *big.Int
	Gas   uint64
}

func (m CallMsg) params() map[string]string {
	p := map[string]string{}
	if m.From != "" {
		p["from"] = m.From
	}
	if m.To != "" {
		p["to"] = m.To
	}
	if len(m.Data) > 0 {
		p["data"] = "0x" + hex.EncodeToString(m.Data)
	}
	if m.Value != nil && m.Value.Sign() > 0 {
		p["value"] = "0x" + m.Value.Text(16)
	}
	if m.Gas > 0 {
		p["gas"] = fmt.Sprintf("0x%x", m.Gas)
	}
	return p
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "chain id", "eth_chainId")
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.callBig(ctx, "block number", "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GetBalance returns the native balance of address in wei.
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return c.callBig(ctx, "balance", "eth_getBalance", address, "latest")
}

// GetNonce returns the next nonce for address, counting pending transactions.
func (c *EVMClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	n, err := c.callBig(ctx, "nonce", "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "gas price", "eth_gasPrice")
}

// MaxPriorityFee returns the suggested tip. Nodes without the method
// (pre-London dev chains) make this return an error; callers fall back
// to the gas price.
func (c *EVMClient) MaxPriorityFee(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "priority fee", "eth_maxPriorityFeePerGas")
}

// EstimateGas estimates gas for msg.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	n, err := c.callBig(ctx, "gas estimate", "eth_estimateGas", msg.params())
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Call executes msg against the latest block without creating a transaction.
// A revert is reported as ErrReverted wrapped with the node's reason.
func (c *EVMClient) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	raw, err := c.call(ctx, "eth_call", msg.params(), "latest")
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.IsRevert() {
			return nil, fmt.Errorf("%w: %s", ErrReverted, extractRevertReason(rpcErr.Message))
		}
		return nil, err
	}
	return decodeHexResult(raw)
}

// SendRawTransaction broadcasts a signed raw transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, rawTx []byte) (string, error) {
	raw, err := c.call(ctx, "eth_sendRawTransaction", "0x"+hex.EncodeToString(rawTx))
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("unexpected result: %s", string(raw))
	}
	return hash, nil
}

// GetCode returns the bytecode at an address. Empty means no contract.
func (c *EVMClient) GetCode(ctx context.Context, address string) ([]byte, error) {
	raw, err := c.call(ctx, "eth_getCode", address, "latest")
	if err != nil {
		return nil, err
	}
	return decodeHexResult(raw)
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash            string
	Status          uint64 // 1 = success, 0 = reverted
	BlockNumber     uint64
	GasUsed         uint64
	ContractAddress string // non-empty when a contract was deployed
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash string) (*TxReceipt, error) {
	raw, err := c.call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil // still pending
	}

	var r struct {
		Status          string `json:"status"`
		BlockNumber     string `json:"blockNumber"`
		GasUsed         string `json:"gasUsed"`
		ContractAddress string `json:"contractAddress"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	receipt := &TxReceipt{Hash: hash, ContractAddress: r.ContractAddress}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined, timeout expires or ctx
// is done. A reverted transaction returns its receipt together with ErrReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("transaction %s not mined within %s", hash, timeout)
			}
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s", hash, timeout)
		case <-ticker.C:
		}
	}
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// IsRevert reports whether the node rejected the call because the EVM reverted.
func (e *RPCError) IsRevert() bool {
	return e.Code == 3 || strings.Contains(strings.ToLower(e.Message), "revert")
}

func (c *EVMClient) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// callBig performs a call whose result is a hex quantity.
func (c *EVMClient) callBig(ctx context.Context, what, method string, params ...interface{}) (*big.Int, error) {
	raw, err := c.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, fmt.Errorf("unexpected result: %s", string(raw))
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s: %s", what, hexStr)
	}
	return n, nil
}

func decodeHexResult(raw json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unexpected result: %s", string(raw))
	}
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding hex result: %w", err)
	}
	return b, nil
}

// extractRevertReason tries to pull the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	// Common pattern: "execution reverted: <reason>"
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx+len("execution reverted:"):])
	}
	return strings.TrimSpace(errMsg)
}

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 16)
}

// --- math helpers ---

var eth1 = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// WeiToETH converts a wei amount to an ETH decimal string.
func WeiToETH(wei *big.Int) string {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, eth1)
	return f.Text('f', 18)
}
