package wire

import (
	"errors"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

// Code is the error code sent to clients in an error frame.
type Code string

const (
	CodeInvalidPublicKey       Code = "INVALID_PUBLIC_KEY"
	CodeInvalidKeySize         Code = "INVALID_KEY_SIZE"
	CodeInvalidNonceSize       Code = "INVALID_NONCE_SIZE"
	CodeDecryptionFailed       Code = "DECRYPTION_FAILED"
	CodeInvalidSignature       Code = "INVALID_SIGNATURE"
	CodeInvalidPayload         Code = "INVALID_PAYLOAD"
	CodeMissingPayload         Code = "MISSING_PAYLOAD"
	CodeMissingPayloadFields   Code = "MISSING_PAYLOAD_FIELDS"
	CodeInvalidHex             Code = "INVALID_HEX_ENCODING"
	CodeInvalidMessage         Code = "INVALID_MESSAGE"
	CodeUnknownMessageType     Code = "UNKNOWN_MESSAGE_TYPE"
	CodeSessionKeyNotFound     Code = "SESSION_KEY_NOT_FOUND"
	CodeSessionExists          Code = "SESSION_EXISTS"
	CodeEncryptionNotSupported Code = "ENCRYPTION_NOT_SUPPORTED"
	CodeInternal               Code = "INTERNAL_ERROR"
)

// Error is a protocol-level failure with the code the client will see.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// CodeFor maps err onto the client-visible code space.
func CodeFor(err error) Code {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return CodeSessionKeyNotFound
	case errors.Is(err, domain.ErrSessionExists):
		return CodeSessionExists
	case errors.Is(err, domain.ErrNodeKeyMissing):
		return CodeEncryptionNotSupported
	}
	switch crypto.KindOf(err) {
	case crypto.KindInvalidPublicKey:
		return CodeInvalidPublicKey
	case crypto.KindInvalidKeyLength:
		return CodeInvalidKeySize
	case crypto.KindInvalidNonceLength:
		return CodeInvalidNonceSize
	case crypto.KindAuthenticationFailed:
		return CodeDecryptionFailed
	case crypto.KindInvalidSignature, crypto.KindRecoveryFailed:
		return CodeInvalidSignature
	case crypto.KindInvalidPayload:
		return CodeInvalidPayload
	}
	return CodeInternal
}

// ClientMessage returns text safe to send to a client for err. Internal
// failures are not described.
func ClientMessage(err error) string {
	if CodeFor(err) == CodeInternal {
		return "internal error"
	}
	return err.Error()
}
