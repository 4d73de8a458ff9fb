package src20

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/palantir/stacktrace"
)

// Salt randomizes a deployment's address.
type Salt [32]byte

// NewRandomSalt draws 32 bytes from crypto/rand.
func NewRandomSalt() (Salt, error) {
	var s Salt
	if _, err := rand.Read(s[:]); err != nil {
		return Salt{}, stacktrace.Propagate(err, "An error occurred generating a random salt")
	}
	return s, nil
}

// ParseSalt parses a 0x-prefixed or bare hex salt of at most 32 bytes.
// Shorter values are left-padded.
func ParseSalt(s string) (Salt, error) {
	b, err := parseWord(s)
	if err != nil {
		return Salt{}, stacktrace.Propagate(err, "Invalid salt '%v'", s)
	}
	return Salt(b), nil
}

func (s Salt) String() string { return "0x" + hex.EncodeToString(s[:]) }

// IsZero reports whether the salt is unset.
func (s Salt) IsZero() bool { return s == Salt{} }

// ContractID identifies a deployed contract: its address left-padded to 32 bytes.
type ContractID [32]byte

// ContractIDFromAddress pads addr into a ContractID.
func ContractIDFromAddress(addr common.Address) ContractID {
	var c ContractID
	copy(c[12:], addr.Bytes())
	return c
}

// ParseContractID accepts a 20-byte address or a 32-byte contract id.
func ParseContractID(s string) (ContractID, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	switch len(raw) {
	case 40:
		if !common.IsHexAddress(raw) {
			return ContractID{}, stacktrace.NewError("Invalid contract address '%v'", s)
		}
		return ContractIDFromAddress(common.HexToAddress(raw)), nil
	case 64:
		b, err := parseWord(raw)
		if err != nil {
			return ContractID{}, stacktrace.Propagate(err, "Invalid contract id '%v'", s)
		}
		id := ContractID(b)
		for _, x := range id[:12] {
			if x != 0 {
				return ContractID{}, stacktrace.NewError("Contract id '%v' does not hold an EVM address", s)
			}
		}
		return id, nil
	}
	return ContractID{}, stacktrace.NewError("Contract id '%v' must be a 20-byte address or a 32-byte id", s)
}

// Address returns the contract's EVM address.
func (c ContractID) Address() common.Address { return common.BytesToAddress(c[12:]) }

func (c ContractID) String() string { return "0x" + hex.EncodeToString(c[:]) }

// SubID selects one asset within a contract.
type SubID [32]byte

// DefaultSubID is the all-zero sub id.
var DefaultSubID = SubID{}

// ParseSubID parses a hex sub id of at most 32 bytes, left-padded.
func ParseSubID(s string) (SubID, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultSubID, nil
	}
	b, err := parseWord(s)
	if err != nil {
		return SubID{}, stacktrace.Propagate(err, "Invalid sub id '%v'", s)
	}
	return SubID(b), nil
}

func (s SubID) String() string { return "0x" + hex.EncodeToString(s[:]) }

// AssetID identifies one asset: sha256(contract id ‖ sub id).
type AssetID [32]byte

// AssetIDFor derives the asset id minted by contract under sub.
func AssetIDFor(sub SubID, contract ContractID) AssetID {
	h := sha256.New()
	h.Write(contract[:])
	h.Write(sub[:])
	var a AssetID
	copy(a[:], h.Sum(nil))
	return a
}

// DefaultAssetID is the asset minted by contract under DefaultSubID.
func DefaultAssetID(contract ContractID) AssetID {
	return AssetIDFor(DefaultSubID, contract)
}

// ParseAssetID parses a 32-byte hex asset id.
func ParseAssetID(s string) (AssetID, error) {
	b, err := parseWord(s)
	if err != nil {
		return AssetID{}, stacktrace.Propagate(err, "Invalid asset id '%v'", s)
	}
	return AssetID(b), nil
}

func (a AssetID) String() string { return "0x" + hex.EncodeToString(a[:]) }

// Identity is a mint recipient: an account or a contract.
type Identity struct {
	addr       common.Address
	isContract bool
}

// AddressIdentity returns an Identity for an externally owned account.
func AddressIdentity(addr common.Address) Identity { return Identity{addr: addr} }

// ContractIdentity returns an Identity for a contract.
func ContractIdentity(c ContractID) Identity {
	return Identity{addr: c.Address(), isContract: true}
}

// Address returns the recipient address encoded into mint calls.
func (i Identity) Address() common.Address { return i.addr }

// IsContract reports whether the identity was built from a ContractID.
func (i Identity) IsContract() bool { return i.isContract }

func (i Identity) String() string {
	if i.isContract {
		return "Contract(" + i.addr.Hex() + ")"
	}
	return "Address(" + i.addr.Hex() + ")"
}

// parseWord decodes up to 32 bytes of hex into a left-padded word.
func parseWord(s string) ([32]byte, error) {
	var out [32]byte
	raw := strings.TrimSpace(s)
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		raw = raw[2:]
	}
	if raw == "" {
		return out, fmt.Errorf("empty hex value")
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) > 32 {
		return out, fmt.Errorf("value is %d bytes, want at most 32", len(b))
	}
	copy(out[32-len(b):], b)
	return out, nil
}
