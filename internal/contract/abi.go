package contract

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

var (
	ErrUnknownBuiltin = errors.New("unknown built-in ABI")
	ErrMethodNotFound = errors.New("method not found in ABI")
	ErrNotReadMethod  = errors.New("method is not read-only")
	ErrNotWriteMethod = errors.New("method does not modify state")
)

// ABIEntry is one ABI entry (function, event, constructor).
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature returns the canonical signature, e.g. "burn(bytes32,uint64)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector computes the 4-byte function selector as 0x-prefixed hex.
func (e ABIEntry) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(e.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Parsed pairs the raw entries with the go-ethereum ABI built from them.
type Parsed struct {
	Entries []ABIEntry
	ABI     abi.ABI
}

// Parse converts entries into a go-ethereum ABI.
func Parse(entries []ABIEntry) (*Parsed, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding ABI: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}
	return &Parsed{Entries: entries, ABI: parsed}, nil
}

// Entry returns the function entry named name.
func (p *Parsed) Entry(name string) (*ABIEntry, error) {
	for i := range p.Entries {
		if p.Entries[i].Type == "function" && p.Entries[i].Name == name {
			return &p.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMethodNotFound, name)
}

// Pack encodes a call to method. An empty method packs constructor arguments.
func (p *Parsed) Pack(method string, args ...interface{}) ([]byte, error) {
	if method != "" {
		if _, err := p.Entry(method); err != nil {
			return nil, err
		}
	}
	data, err := p.ABI.Pack(method, args...)
	if err != nil {
		if method == "" {
			method = "constructor"
		}
		return nil, fmt.Errorf("encoding %s arguments: %w", method, err)
	}
	return data, nil
}

// Unpack decodes the return data of method.
func (p *Parsed) Unpack(method string, data []byte) ([]interface{}, error) {
	out, err := p.ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return out, nil
}
