package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"llmnode/internal/crypto"
)

// keyFileFormatVersion is the current on-disk key file format.
const keyFileFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the key
// file has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")

// envelope is the on-disk JSON structure: scrypt parameters, an
// XChaCha20-Poly1305 nonce and the sealed key. Address is stored in clear so
// the owner can be shown without the passphrase; it is bound as AAD.
type envelope struct {
	V       int    `json:"v"`
	Address string `json:"address"`
	Salt    []byte `json:"salt"`
	N       int    `json:"scrypt_N"`
	R       int    `json:"scrypt_r"`
	P       int    `json:"scrypt_p"`
	Nonce   []byte `json:"nonce"`
	Cipher  []byte `json:"cipher"`
}

type scryptParams struct{ N, r, p int }

// Tunables for scrypt key derivation.
func scryptParamsDefault() scryptParams { return scryptParams{N: 1 << 15, r: 8, p: 1} }

func (e *envelope) aad() []byte {
	return []byte(fmt.Sprintf("llmnode-key-v%d:%s", e.V, e.Address))
}

// seal derives a key-encryption key from passphrase and seals raw.
func seal(passphrase string, address string, raw []byte, params scryptParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	kek, err := scrypt.Key([]byte(passphrase), salt[:], params.N, params.r, params.p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kek)

	nonce, err := crypto.NewNonce()
	if err != nil {
		return nil, err
	}
	env := envelope{
		V:       keyFileFormatVersion,
		Address: address,
		Salt:    salt[:],
		N:       params.N,
		R:       params.r,
		P:       params.p,
		Nonce:   nonce[:],
	}
	env.Cipher, err = crypto.EncryptWithAEAD(raw, env.Nonce, env.aad(), kek)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(env, "", "  ")
}

// open parses b and decrypts it with a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, *envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, nil, fmt.Errorf("parse key file: %w", err)
	}
	if env.V != keyFileFormatVersion {
		return nil, nil, fmt.Errorf("unsupported key file version %d", env.V)
	}
	kek, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Wipe(kek)

	pt, err := crypto.DecryptWithAEAD(env.Cipher, env.Nonce, env.aad(), kek)
	if err != nil {
		return nil, nil, ErrWrongPassphrase
	}
	return pt, &env, nil
}

func parseEnvelope(b []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	return &env, nil
}
