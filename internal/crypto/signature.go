package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"llmnode/internal/domain"
)

// SignatureSize is the recoverable ECDSA signature length: r || s || v.
const SignatureSize = 65

// RecoverPublicKey recovers the signer of message from a 65-byte r||s||v
// signature. The message is hashed with SHA-256 before recovery, matching the
// digest a standard secp256k1 signer applies when signing raw bytes.
//
// v must be 0 or 1; Ethereum's 27/28 offset is not accepted.
func RecoverPublicKey(signature, message []byte) (*ecdsa.PublicKey, error) {
	if len(signature) != SignatureSize {
		return nil, newError(KindInvalidSignature, "recover", "signature",
			fmt.Sprintf("expected %d bytes, got %d", SignatureSize, len(signature)))
	}
	if v := signature[SignatureSize-1]; v > 1 {
		return nil, newError(KindRecoveryFailed, "recover", "signature",
			fmt.Sprintf("recovery id %d out of range", v))
	}
	digest := sha256.Sum256(message)
	pub, err := ethcrypto.SigToPub(digest[:], signature)
	if err != nil {
		return nil, newError(KindRecoveryFailed, "recover", "signature", "no public key for signature")
	}
	return pub, nil
}

// RecoverClientAddress recovers the Ethereum-style address that signed
// message.
func RecoverClientAddress(signature, message []byte) (domain.Address, error) {
	pub, err := RecoverPublicKey(signature, message)
	if err != nil {
		return "", err
	}
	return PublicKeyToAddress(pub), nil
}

// PublicKeyToAddress returns "0x" + lower-case hex of the last 20 bytes of
// Keccak-256 over the uncompressed point without its 0x04 prefix.
func PublicKeyToAddress(pub *ecdsa.PublicKey) domain.Address {
	raw := ethcrypto.FromECDSAPub(pub)
	h := ethcrypto.Keccak256(raw[1:])
	return domain.Address("0x" + hex.EncodeToString(h[12:]))
}

// SignMessage produces the signature RecoverPublicKey expects: a recoverable
// secp256k1 signature over SHA-256(message) with v in {0,1}.
func SignMessage(message []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig, err := ethcrypto.Sign(digest[:], key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}
