package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"llmnode/internal/domain"
)

// rawFields holds optional hex strings so missing fields can be reported.
type rawFields struct {
	EphPubHex     *string `json:"ephPubHex"`
	CiphertextHex *string `json:"ciphertextHex"`
	NonceHex      *string `json:"nonceHex"`
	SignatureHex  *string `json:"signatureHex"`
	AADHex        *string `json:"aadHex"`
}

// DecodeFrame parses a client frame.
func DecodeFrame(b []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(b, &in); err != nil {
		return Inbound{}, &Error{Code: CodeInvalidMessage, Message: "frame is not a JSON object"}
	}
	if in.Type == "" {
		return Inbound{}, &Error{Code: CodeInvalidMessage, Message: "frame has no type"}
	}
	return in, nil
}

// DecodeSessionInit converts the payload of an encrypted_session_init frame.
// ephPubHex, ciphertextHex, nonceHex and signatureHex are required; aadHex may
// be absent or empty. Sizes are checked later by the session-init decryptor.
func DecodeSessionInit(payload json.RawMessage) (domain.EncryptedSessionPayload, error) {
	f, err := parseFields(payload, "encrypted_session_init")
	if err != nil {
		return domain.EncryptedSessionPayload{}, err
	}
	if missing := f.missing("ephPubHex", "ciphertextHex", "nonceHex", "signatureHex"); len(missing) > 0 {
		return domain.EncryptedSessionPayload{}, missingFields(missing)
	}

	var out domain.EncryptedSessionPayload
	for _, d := range []struct {
		name string
		src  *string
		dst  *[]byte
	}{
		{"ephPubHex", f.EphPubHex, &out.EphPub},
		{"ciphertextHex", f.CiphertextHex, &out.Ciphertext},
		{"nonceHex", f.NonceHex, &out.Nonce},
		{"signatureHex", f.SignatureHex, &out.Signature},
		{"aadHex", f.AADHex, &out.AAD},
	} {
		b, err := decodeHex(d.name, d.src)
		if err != nil {
			return domain.EncryptedSessionPayload{}, err
		}
		*d.dst = b
	}
	return out, nil
}

// DecodeMessage converts the payload of an encrypted_message frame.
// ciphertextHex and nonceHex are required; aadHex is optional.
func DecodeMessage(payload json.RawMessage) (domain.EncryptedMessage, error) {
	f, err := parseFields(payload, "encrypted_message")
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	if missing := f.missing("ciphertextHex", "nonceHex"); len(missing) > 0 {
		return domain.EncryptedMessage{}, missingFields(missing)
	}
	return decodeSealed(f)
}

// DecodeSealed converts a node frame payload back to a domain message. The
// client uses it for chunks and responses.
func DecodeSealed(p SealedPayload) (domain.EncryptedMessage, error) {
	return decodeSealed(rawFields{
		CiphertextHex: &p.CiphertextHex,
		NonceHex:      &p.NonceHex,
		AADHex:        &p.AADHex,
	})
}

func decodeSealed(f rawFields) (domain.EncryptedMessage, error) {
	ct, err := decodeHex("ciphertextHex", f.CiphertextHex)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	nonce, err := decodeHex("nonceHex", f.NonceHex)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	aad, err := decodeHex("aadHex", f.AADHex)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	return domain.EncryptedMessage{Ciphertext: ct, Nonce: nonce, AAD: aad}, nil
}

func parseFields(payload json.RawMessage, frame string) (rawFields, error) {
	var f rawFields
	if len(payload) == 0 || string(payload) == "null" {
		return f, &Error{Code: CodeMissingPayload, Message: frame + " must include payload object"}
	}
	if err := json.Unmarshal(payload, &f); err != nil {
		return f, &Error{Code: CodeInvalidPayload, Message: frame + " payload is not an object of hex strings"}
	}
	return f, nil
}

func (f rawFields) missing(names ...string) []string {
	present := map[string]bool{
		"ephPubHex":     f.EphPubHex != nil && *f.EphPubHex != "",
		"ciphertextHex": f.CiphertextHex != nil && *f.CiphertextHex != "",
		"nonceHex":      f.NonceHex != nil && *f.NonceHex != "",
		"signatureHex":  f.SignatureHex != nil && *f.SignatureHex != "",
	}
	var out []string
	for _, n := range names {
		if !present[n] {
			out = append(out, n)
		}
	}
	return out
}

func missingFields(names []string) error {
	return &Error{
		Code:    CodeMissingPayloadFields,
		Message: "missing required payload fields: " + strings.Join(names, ", "),
	}
}

// decodeHex decodes an optional hex string; nil and "" decode to nil.
func decodeHex(field string, s *string) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimPrefix(*s, "0x")
	if v == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, &Error{Code: CodeInvalidHex, Message: fmt.Sprintf("field %s is not valid hex", field)}
	}
	return b, nil
}
