package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrEmptyKey = errors.New("private key is empty")

// ParsePrivateKey parses a hex encoded secp256k1 key, with or without 0x prefix.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return nil, ErrEmptyKey
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return privateKey, nil
}

// AddressFromKey returns the account address controlled by the key.
func AddressFromKey(privateKey *ecdsa.PrivateKey) (common.Address, error) {
	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("failed to cast public key to ECDSA")
	}

	return crypto.PubkeyToAddress(*publicKeyECDSA), nil
}

// AddressFromPrivateKey derives an Ethereum address from a private key
func AddressFromPrivateKey(privateKeyHex string) (string, error) {
	privateKey, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}

	address, err := AddressFromKey(privateKey)
	if err != nil {
		return "", err
	}

	return address.Hex(), nil
}

// CreationAddress is the address a CREATE transaction from sender at nonce
// deploys to: keccak256(rlp([sender, nonce]))[12:].
func CreationAddress(sender common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(sender, nonce)
}

// KeyToHex encodes a key the way ParsePrivateKey accepts it.
func KeyToHex(privateKey *ecdsa.PrivateKey) string {
	return "0x" + common.Bytes2Hex(crypto.FromECDSA(privateKey))
}
