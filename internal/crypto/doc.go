// Package crypto holds the primitives of the session protocol.
//
// Contents
//
//   - XChaCha20-Poly1305 sealing with associated data (EncryptWithAEAD,
//     DecryptWithAEAD, NewNonce)
//   - secp256k1 ECDH with HKDF-SHA256 key expansion (DeriveSharedKey,
//     ParsePublicKey, ParsePrivateKey)
//   - Client identity recovery from recoverable ECDSA signatures
//     (RecoverClientAddress, RecoverPublicKey, PublicKeyToAddress, SignMessage)
//   - Node key handling (ParseNodePrivateKeyHex, NodeKeyFromEnv,
//     GenerateNodeKey, PublicKeyOf)
//   - Memory wiping and display fingerprints (Wipe, Fingerprint)
//
// # Errors
//
// Failures are *Error values with a closed Kind. Compare with errors.Is
// against the Err* sentinels. AEAD authentication failures are a single opaque
// kind: a wrong key and a tampered ciphertext are indistinguishable.
//
// # Notes
//
// All functions are pure and safe for concurrent use. Error text names the
// operation, field and sizes involved and never includes key bytes.
package crypto
