package identity

import (
	"fmt"
	"unicode"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Identity is the public view of a stored key.
type Identity struct {
	Address     domain.Address
	PublicKey   domain.CompressedPublicKey
	Fingerprint domain.Fingerprint
}

// Service manages key creation and access using a backing store.
type Service struct {
	store domain.NodeKeyStore
}

// New returns an identity service backed by the given store.
func New(s domain.NodeKeyStore) *Service { return &Service{store: s} }

// Generate creates a fresh key, saves it encrypted with passphrase and
// returns its public identity.
func (s *Service) Generate(passphrase string) (Identity, error) {
	if !isSecurePassphrase(passphrase) {
		return Identity{}, ErrWeakPassphrase
	}
	key, err := crypto.GenerateNodeKey()
	if err != nil {
		return Identity{}, err
	}
	defer crypto.WipeNodeKey(&key)
	return s.save(passphrase, key)
}

// Import stores an existing key, for example one taken from HOST_PRIVATE_KEY.
func (s *Service) Import(passphrase string, key domain.NodePrivateKey) (Identity, error) {
	if !isSecurePassphrase(passphrase) {
		return Identity{}, ErrWeakPassphrase
	}
	return s.save(passphrase, key)
}

// Load decrypts and returns the stored private key. The caller must wipe it.
func (s *Service) Load(passphrase string) (domain.NodePrivateKey, error) {
	return s.store.LoadNodeKey(passphrase)
}

// Describe returns the public identity of the stored key.
func (s *Service) Describe(passphrase string) (Identity, error) {
	key, err := s.store.LoadNodeKey(passphrase)
	if err != nil {
		return Identity{}, err
	}
	defer crypto.WipeNodeKey(&key)
	return Describe(key)
}

// Describe derives the public identity of key.
func Describe(key domain.NodePrivateKey) (Identity, error) {
	pub, err := crypto.PublicKeyOf(key)
	if err != nil {
		return Identity{}, err
	}
	parsed, err := crypto.ParsePublicKey(pub[:])
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Address:     crypto.PublicKeyToAddress(parsed),
		PublicKey:   pub,
		Fingerprint: crypto.Fingerprint(pub[:]),
	}, nil
}

func (s *Service) save(passphrase string, key domain.NodePrivateKey) (Identity, error) {
	id, err := Describe(key)
	if err != nil {
		return Identity{}, err
	}
	if err := s.store.SaveNodeKey(passphrase, key); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
