package domain

// SessionKey is the 32-byte symmetric key a client chooses for a session.
type SessionKey [32]byte

// IsZero reports whether every byte of k is zero, as it is after a wipe.
func (k SessionKey) IsZero() bool {
	var acc byte
	for _, b := range k {
		acc |= b
	}
	return acc == 0
}

// NodePrivateKey is the node's long-term secp256k1 scalar (big-endian).
type NodePrivateKey [32]byte

// CompressedPublicKey is a 33-byte SEC1 compressed secp256k1 point.
type CompressedPublicKey [33]byte

// Fingerprint is a short, display-only digest of a public key.
type Fingerprint string

// Address is a lower-case, 0x-prefixed Ethereum-style account address.
type Address string
