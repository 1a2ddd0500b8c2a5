// Package store holds the node's state.
//
// Live sessions are kept in memory only (MemorySessionStore): a session key
// never touches disk and is zeroed when its session is removed, swept or
// cleared. Long-term secp256k1 keys are kept in passphrase-protected files
// (KeyFileStore): scrypt derives a key-encryption key that seals the private
// key with XChaCha20-Poly1305. Files are replaced atomically.
//
// All types are safe for concurrent use.
package store
