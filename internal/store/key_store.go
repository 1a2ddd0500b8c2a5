package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

const (
	nodeKeyFilename = "node_key.json.enc"
	walletFilename  = "wallet.json.enc"
)

// ErrNoKeyFile is returned when the key file has not been created yet.
var ErrNoKeyFile = errors.New("key file not found")

// KeyFileStore persists one passphrase-protected secp256k1 private key.
// The node uses it for its static key and the client CLI for its wallet.
type KeyFileStore struct {
	path   string
	params scryptParams
	mu     sync.Mutex
}

// NewNodeKeyStore returns a KeyFileStore for the node key under dir.
func NewNodeKeyStore(dir string) *KeyFileStore {
	return &KeyFileStore{path: filepath.Join(dir, nodeKeyFilename), params: scryptParamsDefault()}
}

// NewWalletStore returns a KeyFileStore for a client wallet under dir.
func NewWalletStore(dir string) *KeyFileStore {
	return &KeyFileStore{path: filepath.Join(dir, walletFilename), params: scryptParamsDefault()}
}

// WithScryptParams overrides the KDF cost. Intended for tests.
func (s *KeyFileStore) WithScryptParams(N, r, p int) *KeyFileStore {
	s.params = scryptParams{N: N, r: r, p: p}
	return s
}

// Path returns the key file location.
func (s *KeyFileStore) Path() string { return s.path }

// Exists reports whether the key file is present.
func (s *KeyFileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// SaveNodeKey encrypts key with passphrase and atomically replaces the file.
func (s *KeyFileStore) SaveNodeKey(passphrase string, key domain.NodePrivateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := ethcrypto.ToECDSA(key[:])
	if err != nil {
		return fmt.Errorf("save key: %w", crypto.ErrInvalidPrivateKey)
	}
	blob, err := seal(passphrase, string(crypto.AddressOf(priv)), key[:], s.params)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return writeFile(s.path, blob, 0o600)
}

// LoadNodeKey reads and decrypts the key.
func (s *KeyFileStore) LoadNodeKey(passphrase string) (domain.NodePrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path)
	if err != nil {
		return domain.NodePrivateKey{}, err
	}
	if b == nil {
		return domain.NodePrivateKey{}, ErrNoKeyFile
	}
	raw, _, err := open(passphrase, b)
	if err != nil {
		return domain.NodePrivateKey{}, err
	}
	defer crypto.Wipe(raw)

	var key domain.NodePrivateKey
	if len(raw) != len(key) {
		return key, fmt.Errorf("load key: %w", crypto.ErrInvalidKeyLength)
	}
	copy(key[:], raw)
	return key, nil
}

// Address returns the address recorded in the key file without decrypting it.
func (s *KeyFileStore) Address() (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", ErrNoKeyFile
	}
	env, err := parseEnvelope(b)
	if err != nil {
		return "", err
	}
	return domain.Address(env.Address), nil
}

// Compile-time assertion that KeyFileStore implements domain.NodeKeyStore.
var _ domain.NodeKeyStore = (*KeyFileStore)(nil)
