// Package identity creates, imports and loads long-term secp256k1 keys: the
// node's static key and a client's wallet key.
//
// It enforces the passphrase policy and persists keys via a
// domain.NodeKeyStore.
package identity
