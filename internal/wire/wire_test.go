package wire_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/wire"
)

func TestDecodeFrame(t *testing.T) {
	in, err := wire.DecodeFrame([]byte(`{"type":"encrypted_message","id":"r-1","sessionId":"abc","chainId":8453,"payload":{}}`))
	require.NoError(t, err)
	assert.Equal(t, wire.TypeEncryptedMessage, in.Type)
	assert.Equal(t, "abc", in.Session())
	assert.Equal(t, uint64(8453), in.Chain(84532))
	assert.JSONEq(t, `"r-1"`, string(in.ID))

	in, err = wire.DecodeFrame([]byte(`{"type":"session_end","session_id":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", in.Session())
	assert.Equal(t, uint64(84532), in.Chain(84532))

	_, err = wire.DecodeFrame([]byte(`not json`))
	assert.Equal(t, wire.CodeInvalidMessage, wire.CodeFor(err))
	_, err = wire.DecodeFrame([]byte(`{"id":1}`))
	assert.Equal(t, wire.CodeInvalidMessage, wire.CodeFor(err))
}

func TestDecodeSessionInit(t *testing.T) {
	p, err := wire.DecodeSessionInit(json.RawMessage(`{
		"ephPubHex": "0x02aa",
		"ciphertextHex": "bbcc",
		"nonceHex": "0x00",
		"signatureHex": "dd",
		"aadHex": ""
	}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0xaa}, p.EphPub)
	assert.Equal(t, []byte{0xbb, 0xcc}, p.Ciphertext)
	assert.Equal(t, []byte{0x00}, p.Nonce)
	assert.Equal(t, []byte{0xdd}, p.Signature)
	assert.Empty(t, p.AAD)
}

func TestDecodeSessionInit_Errors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    wire.Code
	}{
		{"absent", ``, wire.CodeMissingPayload},
		{"null", `null`, wire.CodeMissingPayload},
		{"array", `[1,2]`, wire.CodeInvalidPayload},
		{"missing signature", `{"ephPubHex":"02","ciphertextHex":"aa","nonceHex":"bb"}`, wire.CodeMissingPayloadFields},
		{"bad hex", `{"ephPubHex":"zz","ciphertextHex":"aa","nonceHex":"bb","signatureHex":"cc"}`, wire.CodeInvalidHex},
		{"odd hex", `{"ephPubHex":"02","ciphertextHex":"aaa","nonceHex":"bb","signatureHex":"cc"}`, wire.CodeInvalidHex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wire.DecodeSessionInit(json.RawMessage(tc.payload))
			require.Error(t, err)
			assert.Equal(t, tc.want, wire.CodeFor(err))
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	m, err := wire.DecodeMessage(json.RawMessage(`{"ciphertextHex":"0a0b","nonceHex":"0c"}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, m.Ciphertext)
	assert.Nil(t, m.AAD)

	_, err = wire.DecodeMessage(json.RawMessage(`{"ciphertextHex":"0a0b"}`))
	assert.Equal(t, wire.CodeMissingPayloadFields, wire.CodeFor(err))
	assert.Contains(t, err.Error(), "nonceHex")
}

func TestEncodeSealed_RoundTrip(t *testing.T) {
	in := domain.EncryptedMessage{Ciphertext: []byte{1, 2}, Nonce: []byte{3}, AAD: []byte("chunk_0")}
	out, err := wire.DecodeSealed(wire.EncodeSealed(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want wire.Code
	}{
		{crypto.ErrAuthenticationFailed, wire.CodeDecryptionFailed},
		{fmt.Errorf("wrapped: %w", crypto.ErrInvalidNonceLength), wire.CodeInvalidNonceSize},
		{crypto.ErrInvalidSignature, wire.CodeInvalidSignature},
		{crypto.ErrRecoveryFailed, wire.CodeInvalidSignature},
		{crypto.ErrInvalidPublicKey, wire.CodeInvalidPublicKey},
		{crypto.ErrInvalidPayload, wire.CodeInvalidPayload},
		{domain.ErrSessionNotFound, wire.CodeSessionKeyNotFound},
		{fmt.Errorf("establish: %w", domain.ErrSessionExists), wire.CodeSessionExists},
		{domain.ErrNodeKeyMissing, wire.CodeEncryptionNotSupported},
		{errors.New("disk on fire"), wire.CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, wire.CodeFor(tc.err), tc.err.Error())
	}
}

func TestErrorFrame_HidesInternalDetail(t *testing.T) {
	f := wire.ErrorFrame(json.RawMessage(`7`), "s", errors.New("path /secret/key failed"))
	assert.Equal(t, wire.TypeError, f.Type)
	assert.Equal(t, wire.CodeInternal, f.Code)
	assert.Equal(t, "internal error", f.Message)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","id":7,"session_id":"s","code":"INTERNAL_ERROR","message":"internal error"}`, string(b))
}
