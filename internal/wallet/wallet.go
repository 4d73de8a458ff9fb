package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/src20kit/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Errors.
var (
	ErrInvalidKey = errors.New("invalid private key")
	ErrNoSecret   = errors.New("no secret key configured")
)

// Wallet is an unlocked signing account built from a secret key.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromSecretKey parses a hex secp256k1 private key (0x prefix optional).
func FromSecretKey(hexKey string) (*Wallet, error) {
	raw := normaliseHexKey(hexKey)
	if raw == "" {
		return nil, ErrNoSecret
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// ResolveSecret returns the secret to unlock with. A literal secret wins over
// a keystore reference.
func ResolveSecret(secret, keyRef string, ks KeystoreBackend) (string, error) {
	if normaliseHexKey(secret) != "" {
		return secret, nil
	}
	if keyRef == "" || ks == nil {
		return "", ErrNoSecret
	}
	hexKey, err := ks.Retrieve(keyRef)
	if err != nil {
		return "", fmt.Errorf("retrieving key %q: %w", keyRef, err)
	}
	return hexKey, nil
}

// Load resolves the secret and unlocks the wallet in one step.
func Load(secret, keyRef string, ks KeystoreBackend) (*Wallet, error) {
	hexKey, err := ResolveSecret(secret, keyRef, ks)
	if err != nil {
		return nil, err
	}
	return FromSecretKey(hexKey)
}

// Address returns the wallet's address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SignTx signs an EVM transaction and returns the raw signed bytes.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, w.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// Balance returns the wallet's native balance in wei.
func (w *Wallet) Balance(ctx context.Context, client *chain.EVMClient) (*big.Int, error) {
	return client.GetBalance(ctx, w.address.Hex())
}
