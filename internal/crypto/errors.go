package crypto

import (
	"errors"
	"strings"
)

// Kind classifies a failure in the session cryptography. The set is closed.
type Kind int

const (
	KindInvalidPublicKey Kind = iota + 1
	KindInvalidPrivateKey
	KindInvalidKeyLength
	KindInvalidNonceLength
	KindAuthenticationFailed
	KindInvalidSignature
	KindRecoveryFailed
	KindInvalidPayload
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPublicKey:
		return "invalid public key"
	case KindInvalidPrivateKey:
		return "invalid private key"
	case KindInvalidKeyLength:
		return "invalid key length"
	case KindInvalidNonceLength:
		return "invalid nonce length"
	case KindAuthenticationFailed:
		return "authentication failed"
	case KindInvalidSignature:
		return "invalid signature"
	case KindRecoveryFailed:
		return "signature recovery failed"
	case KindInvalidPayload:
		return "invalid payload"
	default:
		return "unknown crypto error"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalidPublicKey     = &Error{Kind: KindInvalidPublicKey}
	ErrInvalidPrivateKey    = &Error{Kind: KindInvalidPrivateKey}
	ErrInvalidKeyLength     = &Error{Kind: KindInvalidKeyLength}
	ErrInvalidNonceLength   = &Error{Kind: KindInvalidNonceLength}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed}
	ErrInvalidSignature     = &Error{Kind: KindInvalidSignature}
	ErrRecoveryFailed       = &Error{Kind: KindRecoveryFailed}
	ErrInvalidPayload       = &Error{Kind: KindInvalidPayload}
)

// Error carries the failing operation and, where useful, the offending field.
// Detail holds sizes or parse reasons only; never key material.
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is matches any *Error of the same Kind, so callers can compare against the
// package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not a crypto error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op, field, detail string) *Error {
	return &Error{Kind: kind, Op: op, Field: field, Detail: detail}
}
