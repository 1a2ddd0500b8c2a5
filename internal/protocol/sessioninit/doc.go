// Package sessioninit opens the encrypted session-init payload a client sends
// to start a session, and seals one on the client side.
//
// # Overview
//
// The client has no prior relationship with the node. It generates an
// ephemeral secp256k1 key, derives a symmetric key with the node's static
// public key, encrypts a small JSON document that carries the session key it
// chose, and signs the ciphertext with its wallet key. The node learns who the
// client is by recovering the signer's address.
//
// # Flows
//
// Node (Decrypt):
//  1. Check sizes: 24-byte nonce, 65-byte signature, 32-byte node key.
//  2. Parse the ephemeral public key (33 or 65 bytes).
//  3. ECDH + HKDF-SHA256 to the 32-byte init key.
//  4. XChaCha20-Poly1305 open with the supplied AAD.
//  5. Decode {jobId, modelName, sessionKey, pricePerToken}.
//  6. Recover the client address from the signature over the ciphertext.
//
// Client (Seal):
//  1. Fresh ephemeral key and nonce.
//  2. ECDH with the node public key, encrypt the JSON request.
//  3. Sign SHA-256(ciphertext) with the wallet key.
//
// # Errors
//
// All failures are *crypto.Error values. A wrong node key and a tampered
// payload both surface as crypto.ErrAuthenticationFailed. Malformed JSON
// surfaces as crypto.ErrInvalidPayload naming the field.
//
// # Security notes
//
// The signature covers the ciphertext bytes only, not the nonce, AAD or
// ephemeral key. Changing that is a wire-format change shared with clients.
package sessioninit
