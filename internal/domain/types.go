package domain

// EncryptedSessionPayload is the client's session-init request as received on
// the wire, after hex decoding.
//
// Nonce must be 24 bytes and Signature 65 bytes (r || s || v, v in {0,1}).
// EphPub is a 33-byte compressed or 65-byte uncompressed secp256k1 point.
type EncryptedSessionPayload struct {
	EphPub     []byte
	Ciphertext []byte
	Nonce      []byte
	Signature  []byte
	AAD        []byte
}

// SessionInitData is the authenticated content of a session-init payload.
type SessionInitData struct {
	JobID         string
	ModelName     string
	SessionKey    SessionKey
	PricePerToken uint64
	ClientAddress Address
}

// EncryptedMessage is one sealed frame of a session stream.
type EncryptedMessage struct {
	Ciphertext []byte
	Nonce      []byte
	AAD        []byte
}

// NodeInfo is the public description of a node served to clients before they
// open a session.
type NodeInfo struct {
	PublicKeyHex string      `json:"publicKeyHex"`
	Address      Address     `json:"address"`
	Fingerprint  Fingerprint `json:"fingerprint"`
}
