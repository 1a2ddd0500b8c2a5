package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"llmnode/internal/domain"
)

// NodeKeyEnv is the environment variable holding the node's private key.
const NodeKeyEnv = "HOST_PRIVATE_KEY"

// ErrNodeKeyUnset is returned by NodeKeyFromEnv when NodeKeyEnv is empty.
var ErrNodeKeyUnset = errors.New(NodeKeyEnv + " is not set")

// ParseNodePrivateKeyHex parses "0x" followed by 64 hex characters.
// Surrounding whitespace is ignored. The error never echoes the input.
func ParseNodePrivateKeyHex(s string) (domain.NodePrivateKey, error) {
	var key domain.NodePrivateKey
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") {
		return key, newError(KindInvalidPrivateKey, "parse node key", NodeKeyEnv, "missing 0x prefix")
	}
	s = s[2:]
	if len(s) != 2*PrivateKeySize {
		return key, newError(KindInvalidKeyLength, "parse node key", NodeKeyEnv,
			fmt.Sprintf("expected %d hex characters, got %d", 2*PrivateKeySize, len(s)))
	}
	if _, err := hex.Decode(key[:], []byte(s)); err != nil {
		return domain.NodePrivateKey{}, newError(KindInvalidPrivateKey, "parse node key", NodeKeyEnv, "not hex")
	}
	if _, err := ParsePrivateKey(key[:]); err != nil {
		Wipe(key[:])
		return domain.NodePrivateKey{}, err
	}
	return key, nil
}

// NodeKeyFromEnv reads and parses NodeKeyEnv.
func NodeKeyFromEnv() (domain.NodePrivateKey, error) {
	v, ok := os.LookupEnv(NodeKeyEnv)
	if !ok || strings.TrimSpace(v) == "" {
		return domain.NodePrivateKey{}, ErrNodeKeyUnset
	}
	return ParseNodePrivateKeyHex(v)
}

// GenerateNodeKey returns a fresh secp256k1 private key.
func GenerateNodeKey() (domain.NodePrivateKey, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return domain.NodePrivateKey{}, err
	}
	defer wipeScalar(priv)
	var key domain.NodePrivateKey
	priv.D.FillBytes(key[:])
	return key, nil
}

// PublicKeyOf returns the compressed public key for a node private key.
func PublicKeyOf(key domain.NodePrivateKey) (domain.CompressedPublicKey, error) {
	priv, err := ParsePrivateKey(key[:])
	if err != nil {
		return domain.CompressedPublicKey{}, err
	}
	defer wipeScalar(priv)
	var pub domain.CompressedPublicKey
	copy(pub[:], ethcrypto.CompressPubkey(&priv.PublicKey))
	return pub, nil
}

// AddressOf returns the Ethereum-style address controlled by key.
func AddressOf(key *ecdsa.PrivateKey) domain.Address {
	return PublicKeyToAddress(&key.PublicKey)
}
