package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the symmetric key length for the session AEAD.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = chacha20poly1305.NonceSizeX
)

// NewNonce returns a fresh random 24-byte nonce. Every seal in the node draws
// its nonce from here; nonces are never derived or reused.
func NewNonce() ([NonceSize]byte, error) {
	var n [NonceSize]byte
	if _, err := rand.Read(n[:]); err != nil {
		return n, fmt.Errorf("read nonce: %w", err)
	}
	return n, nil
}

// EncryptWithAEAD seals plaintext with XChaCha20-Poly1305, binding aad.
// The returned ciphertext carries the 16-byte tag at its end.
func EncryptWithAEAD(plaintext, nonce, aad, key []byte) ([]byte, error) {
	aead, err := newXChaCha("encrypt", nonce, key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// DecryptWithAEAD opens ciphertext sealed by EncryptWithAEAD.
//
// Any tag mismatch (tampering, truncation, wrong key, nonce or aad) yields
// ErrAuthenticationFailed with no further detail.
func DecryptWithAEAD(ciphertext, nonce, aad, key []byte) ([]byte, error) {
	aead, err := newXChaCha("decrypt", nonce, key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, newError(KindAuthenticationFailed, "decrypt", "", "")
	}
	return pt, nil
}

type sealer interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

func newXChaCha(op string, nonce, key []byte) (sealer, error) {
	if len(key) != KeySize {
		return nil, newError(KindInvalidKeyLength, op, "key",
			fmt.Sprintf("expected %d bytes, got %d", KeySize, len(key)))
	}
	if len(nonce) != NonceSize {
		return nil, newError(KindInvalidNonceLength, op, "nonce",
			fmt.Sprintf("expected %d bytes, got %d", NonceSize, len(nonce)))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, newError(KindInvalidKeyLength, op, "key", "")
	}
	return aead, nil
}
