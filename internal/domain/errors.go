package domain

import "errors"

var (
	// ErrSessionExists is returned when a session id is already established.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned for unknown, closed or expired sessions.
	ErrSessionNotFound = errors.New("session key not found")
	// ErrNodeKeyMissing is returned when the node has no private key and
	// cannot accept encrypted sessions.
	ErrNodeKeyMissing = errors.New("node private key not configured")
)
