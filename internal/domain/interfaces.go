package domain

import (
	"context"
	"time"
)

// SessionStore holds established sessions keyed by session id.
//
// Insert is insert-if-absent. Get returns a copy the caller owns and treats
// expired sessions as absent. Update runs fn under the session's lock and
// keeps the mutated copy only when fn returns nil. Remove and Sweep zero the
// key of every session they drop.
type SessionStore interface {
	Insert(s Session) error
	Get(id string) (Session, bool)
	Update(id string, fn func(s *Session) error) error
	Remove(id string) bool
	Sweep(now time.Time) int
	Count() int
	Clear()
}

// NodeKeyStore persists the node's long-term private key.
type NodeKeyStore interface {
	SaveNodeKey(passphrase string, key NodePrivateKey) error
	LoadNodeKey(passphrase string) (NodePrivateKey, error)
	Exists() bool
}

// SessionService establishes and tears down sessions.
type SessionService interface {
	Establish(ctx context.Context, sessionID string, chainID uint64, payload EncryptedSessionPayload) (Session, error)
	Close(sessionID string) bool
}

// MessageService opens client messages and seals node responses for an
// established session.
type MessageService interface {
	Open(sessionID string, msg EncryptedMessage) ([]byte, error)
	SealChunk(sessionID string, plaintext []byte) (EncryptedMessage, uint64, error)
	SealResponse(sessionID string, plaintext []byte) (EncryptedMessage, error)
}

// Responder produces the plaintext answer to a decrypted prompt. Each call to
// emit delivers one streamed chunk; the returned string is the finish reason.
type Responder interface {
	Respond(ctx context.Context, session Session, prompt []byte, emit func(chunk []byte) error) (string, error)
}
