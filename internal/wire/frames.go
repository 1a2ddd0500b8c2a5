package wire

import (
	"encoding/hex"
	"encoding/json"

	"llmnode/internal/domain"
)

// Frame types.
const (
	TypeEncryptedSessionInit = "encrypted_session_init"
	TypeSessionInitAck       = "session_init_ack"
	TypeEncryptedMessage     = "encrypted_message"
	TypeEncryptedChunk       = "encrypted_chunk"
	TypeEncryptedResponse    = "encrypted_response"
	TypeStreamEnd            = "stream_end"
	TypeSessionEnd           = "session_end"
	TypeSessionEndAck        = "session_end_ack"
	TypeError                = "error"
)

// Inbound is the envelope of every client frame. ID is echoed back verbatim
// on every reply so clients can correlate requests.
type Inbound struct {
	Type         string          `json:"type"`
	ID           json.RawMessage `json:"id,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	SessionIDAlt string          `json:"sessionId,omitempty"`
	ChainID      *uint64         `json:"chain_id,omitempty"`
	ChainIDAlt   *uint64         `json:"chainId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Session returns the session id under either accepted spelling.
func (in *Inbound) Session() string {
	if in.SessionID != "" {
		return in.SessionID
	}
	return in.SessionIDAlt
}

// Chain returns the chain id under either accepted spelling, or def.
func (in *Inbound) Chain(def uint64) uint64 {
	switch {
	case in.ChainID != nil:
		return *in.ChainID
	case in.ChainIDAlt != nil:
		return *in.ChainIDAlt
	default:
		return def
	}
}

// SealedPayload is the hex form of a domain.EncryptedMessage.
type SealedPayload struct {
	CiphertextHex string  `json:"ciphertextHex"`
	NonceHex      string  `json:"nonceHex"`
	AADHex        string  `json:"aadHex"`
	Index         *uint64 `json:"index,omitempty"`
}

// SessionInitPayload is the hex form of a domain.EncryptedSessionPayload.
type SessionInitPayload struct {
	EphPubHex     string `json:"ephPubHex"`
	CiphertextHex string `json:"ciphertextHex"`
	NonceHex      string `json:"nonceHex"`
	SignatureHex  string `json:"signatureHex"`
	AADHex        string `json:"aadHex"`
}

// Outbound is every node frame. Unused fields are omitted.
type Outbound struct {
	Type          string          `json:"type"`
	ID            json.RawMessage `json:"id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Code          Code            `json:"code,omitempty"`
	Message       string          `json:"message,omitempty"`
	JobID         string          `json:"job_id,omitempty"`
	ModelName     string          `json:"model_name,omitempty"`
	ChainID       uint64          `json:"chain_id,omitempty"`
	ClientAddress domain.Address  `json:"client_address,omitempty"`
	Payload       any             `json:"payload,omitempty"`
	Final         bool            `json:"final,omitempty"`
}

// Reply is how a client reads node frames; Payload stays raw until the type
// is known.
type Reply struct {
	Type          string          `json:"type"`
	ID            json.RawMessage `json:"id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Code          Code            `json:"code,omitempty"`
	Message       string          `json:"message,omitempty"`
	JobID         string          `json:"job_id,omitempty"`
	ModelName     string          `json:"model_name,omitempty"`
	ChainID       uint64          `json:"chain_id,omitempty"`
	ClientAddress domain.Address  `json:"client_address,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Final         bool            `json:"final,omitempty"`
}

// EncodeSealed converts a sealed frame to its hex form.
func EncodeSealed(m domain.EncryptedMessage) SealedPayload {
	return SealedPayload{
		CiphertextHex: hex.EncodeToString(m.Ciphertext),
		NonceHex:      hex.EncodeToString(m.Nonce),
		AADHex:        hex.EncodeToString(m.AAD),
	}
}

// EncodeSessionInit converts a session-init payload to its hex form.
func EncodeSessionInit(p domain.EncryptedSessionPayload) SessionInitPayload {
	return SessionInitPayload{
		EphPubHex:     hex.EncodeToString(p.EphPub),
		CiphertextHex: hex.EncodeToString(p.Ciphertext),
		NonceHex:      hex.EncodeToString(p.Nonce),
		SignatureHex:  hex.EncodeToString(p.Signature),
		AADHex:        hex.EncodeToString(p.AAD),
	}
}

// InitAck builds the reply to a successful session init.
func InitAck(id json.RawMessage, s domain.Session) Outbound {
	return Outbound{
		Type:          TypeSessionInitAck,
		ID:            id,
		SessionID:     s.ID,
		Status:        "success",
		JobID:         s.JobID,
		ModelName:     s.ModelName,
		ChainID:       s.ChainID,
		ClientAddress: s.ClientAddress,
		Message:       "Encrypted session initialized successfully",
	}
}

// ErrorFrame builds an error reply for err.
func ErrorFrame(id json.RawMessage, sessionID string, err error) Outbound {
	return Outbound{
		Type:      TypeError,
		ID:        id,
		SessionID: sessionID,
		Code:      CodeFor(err),
		Message:   ClientMessage(err),
	}
}
