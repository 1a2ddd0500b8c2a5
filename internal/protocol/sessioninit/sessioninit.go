package sessioninit

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

// AAD is the associated data clients bind to a session-init payload.
const AAD = "session_init"

// Request is the plaintext a client encrypts into a session-init payload.
type Request struct {
	JobID         string
	ModelName     string
	SessionKey    domain.SessionKey
	PricePerToken uint64
}

// documentFields are the keys of the decrypted payload, in the order missing
// fields are reported. Keys match exactly; encoding/json alone would accept
// case variants such as "JobId".
var documentFields = []string{"jobId", "modelName", "sessionKey", "pricePerToken"}

// Decrypt authenticates and decodes a session-init payload with the node's
// private key and returns the session parameters plus the recovered client
// address.
func Decrypt(payload domain.EncryptedSessionPayload, nodePrivateKey []byte) (domain.SessionInitData, error) {
	if err := validate(payload, nodePrivateKey); err != nil {
		return domain.SessionInitData{}, err
	}

	key, err := crypto.DeriveSharedKey(payload.EphPub, nodePrivateKey)
	if err != nil {
		return domain.SessionInitData{}, err
	}
	defer crypto.Wipe(key[:])

	plaintext, err := crypto.DecryptWithAEAD(payload.Ciphertext, payload.Nonce, payload.AAD, key[:])
	if err != nil {
		return domain.SessionInitData{}, err
	}
	defer crypto.Wipe(plaintext)

	data, err := decodeDocument(plaintext)
	if err != nil {
		return domain.SessionInitData{}, err
	}

	addr, err := crypto.RecoverClientAddress(payload.Signature, payload.Ciphertext)
	if err != nil {
		crypto.WipeSessionKey(&data.SessionKey)
		return domain.SessionInitData{}, err
	}
	data.ClientAddress = addr
	return data, nil
}

func validate(p domain.EncryptedSessionPayload, nodePrivateKey []byte) error {
	if len(p.EphPub) == 0 {
		return &crypto.Error{Kind: crypto.KindInvalidPublicKey, Op: "session init", Field: "ephPub", Detail: "empty"}
	}
	if len(p.Ciphertext) == 0 {
		return &crypto.Error{Kind: crypto.KindInvalidPayload, Op: "session init", Field: "ciphertext", Detail: "empty"}
	}
	if len(p.Nonce) != crypto.NonceSize {
		return &crypto.Error{
			Kind: crypto.KindInvalidNonceLength, Op: "session init", Field: "nonce",
			Detail: fmt.Sprintf("expected %d bytes, got %d", crypto.NonceSize, len(p.Nonce)),
		}
	}
	if len(p.Signature) != crypto.SignatureSize {
		return &crypto.Error{
			Kind: crypto.KindInvalidSignature, Op: "session init", Field: "signature",
			Detail: fmt.Sprintf("expected %d bytes, got %d", crypto.SignatureSize, len(p.Signature)),
		}
	}
	if len(nodePrivateKey) != crypto.PrivateKeySize {
		return &crypto.Error{
			Kind: crypto.KindInvalidKeyLength, Op: "session init", Field: "node private key",
			Detail: fmt.Sprintf("expected %d bytes, got %d", crypto.PrivateKeySize, len(nodePrivateKey)),
		}
	}
	return nil
}

func decodeDocument(plaintext []byte) (domain.SessionInitData, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(plaintext, &doc); err != nil || doc == nil {
		return domain.SessionInitData{}, payloadError("", "not a JSON object")
	}
	for _, name := range documentFields {
		if v, ok := doc[name]; !ok || string(v) == "null" {
			return domain.SessionInitData{}, payloadError(name, "missing")
		}
	}

	var (
		out        domain.SessionInitData
		sessionKey string
	)
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"jobId", &out.JobID},
		{"modelName", &out.ModelName},
		{"sessionKey", &sessionKey},
		{"pricePerToken", &out.PricePerToken},
	} {
		if err := json.Unmarshal(doc[f.name], f.dst); err != nil {
			return domain.SessionInitData{}, payloadError(f.name, "wrong type")
		}
	}

	key, err := parseSessionKey(sessionKey)
	if err != nil {
		return domain.SessionInitData{}, err
	}
	out.SessionKey = key
	return out, nil
}

func parseSessionKey(s string) (domain.SessionKey, error) {
	var key domain.SessionKey
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*len(key) {
		return key, payloadError("sessionKey",
			fmt.Sprintf("expected %d bytes, got %d hex characters", len(key), len(s)))
	}
	if _, err := hex.Decode(key[:], []byte(s)); err != nil {
		crypto.WipeSessionKey(&key)
		return key, payloadError("sessionKey", "not hex")
	}
	return key, nil
}

func payloadError(field, detail string) error {
	return &crypto.Error{Kind: crypto.KindInvalidPayload, Op: "session init", Field: field, Detail: detail}
}

// Seal builds a session-init payload for nodePublic, signed by wallet.
// aad is normally AAD.
func Seal(nodePublic []byte, wallet *ecdsa.PrivateKey, req Request, aad []byte) (domain.EncryptedSessionPayload, error) {
	eph, err := ethcrypto.GenerateKey()
	if err != nil {
		return domain.EncryptedSessionPayload{}, fmt.Errorf("ephemeral key: %w", err)
	}
	ephPriv := ethcrypto.FromECDSA(eph)
	defer crypto.Wipe(ephPriv)

	key, err := crypto.DeriveSharedKey(nodePublic, ephPriv)
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}
	defer crypto.Wipe(key[:])

	sessionKeyHex := "0x" + hex.EncodeToString(req.SessionKey[:])
	plaintext, err := json.Marshal(struct {
		JobID         string `json:"jobId"`
		ModelName     string `json:"modelName"`
		SessionKey    string `json:"sessionKey"`
		PricePerToken uint64 `json:"pricePerToken"`
	}{req.JobID, req.ModelName, sessionKeyHex, req.PricePerToken})
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}
	defer crypto.Wipe(plaintext)

	nonce, err := crypto.NewNonce()
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}
	ct, err := crypto.EncryptWithAEAD(plaintext, nonce[:], aad, key[:])
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}
	sig, err := crypto.SignMessage(ct, wallet)
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}

	return domain.EncryptedSessionPayload{
		EphPub:     ethcrypto.CompressPubkey(&eph.PublicKey),
		Ciphertext: ct,
		Nonce:      nonce[:],
		Signature:  sig,
		AAD:        append([]byte(nil), aad...),
	}, nil
}
