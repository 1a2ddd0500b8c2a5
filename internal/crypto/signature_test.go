package crypto_test

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

func TestPublicKeyToAddress_KnownVector(t *testing.T) {
	key := make([]byte, 32)
	key[31] = 0x01
	priv, err := ethcrypto.ToECDSA(key)
	require.NoError(t, err)

	assert.Equal(t,
		domain.Address("0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"),
		crypto.PublicKeyToAddress(&priv.PublicKey))
}

func TestPublicKeyToAddress_MatchesGethLowercased(t *testing.T) {
	priv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	want := strings.ToLower(ethcrypto.PubkeyToAddress(priv.PublicKey).Hex())
	assert.Equal(t, domain.Address(want), crypto.PublicKeyToAddress(&priv.PublicKey))
}

func TestRecoverClientAddress_RoundTrip(t *testing.T) {
	priv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("ciphertext bytes")

	sig, err := crypto.SignMessage(msg, priv)
	require.NoError(t, err)
	require.Len(t, sig, crypto.SignatureSize)
	require.LessOrEqual(t, sig[64], byte(1))

	addr, err := crypto.RecoverClientAddress(sig, msg)
	require.NoError(t, err)
	assert.Equal(t, crypto.AddressOf(priv), addr)
}

// Wallet key 0x0102..20 signing SHA-256("llmnode signature vector") with
// RFC 6979 nonces and low-S normalisation.
const (
	vectorWallet  = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	vectorMessage = "llmnode signature vector"
	vectorAddress = domain.Address("0x6370ef2f4db3611d657b90667de398a2cc2a370c")

	vectorSignature = "642257f9a9cc4ce5a84afc4370d4964c8a1cf5ee033645af21e7d85a99cdf8eb" +
		"1ca99887c88bcbdd82b26271edefd821319aaa2c66a01939fd81b38f1247514900"
)

func vectorKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ethcrypto.HexToECDSA(vectorWallet)
	require.NoError(t, err)
	return priv
}

func TestRecoverClientAddress_KnownVector(t *testing.T) {
	sig, err := hex.DecodeString(vectorSignature)
	require.NoError(t, err)

	addr, err := crypto.RecoverClientAddress(sig, []byte(vectorMessage))
	require.NoError(t, err)
	assert.Equal(t, vectorAddress, addr)
	assert.Equal(t, vectorAddress, crypto.AddressOf(vectorKey(t)))
}

func TestSignMessage_KnownVector(t *testing.T) {
	sig, err := crypto.SignMessage([]byte(vectorMessage), vectorKey(t))
	require.NoError(t, err)
	assert.Equal(t, vectorSignature, hex.EncodeToString(sig))
}

func TestRecoverClientAddress_HashesWithSHA256(t *testing.T) {
	priv := vectorKey(t)
	msg := []byte(vectorMessage)

	// The same key signing a Keccak-256 prehash must recover someone else.
	sig, err := ethcrypto.Sign(ethcrypto.Keccak256(msg), priv)
	require.NoError(t, err)

	addr, err := crypto.RecoverClientAddress(sig, msg)
	require.NoError(t, err)
	assert.NotEqual(t, vectorAddress, addr)
}

func TestRecoverClientAddress_DifferentMessage(t *testing.T) {
	priv := vectorKey(t)
	sig, err := crypto.SignMessage([]byte("original"), priv)
	require.NoError(t, err)

	addr, err := crypto.RecoverClientAddress(sig, []byte("substituted"))
	require.NoError(t, err)
	assert.NotEqual(t, vectorAddress, addr)
}

func TestRecoverClientAddress_Malformed(t *testing.T) {
	priv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("m")
	good, err := crypto.SignMessage(msg, priv)
	require.NoError(t, err)

	withV := func(v byte) []byte {
		s := append([]byte(nil), good...)
		s[64] = v
		return s
	}

	cases := []struct {
		name string
		sig  []byte
		want error
	}{
		{"empty", nil, crypto.ErrInvalidSignature},
		{"64 bytes", good[:64], crypto.ErrInvalidSignature},
		{"66 bytes", append(append([]byte(nil), good...), 0), crypto.ErrInvalidSignature},
		{"all zero", make([]byte, 65), crypto.ErrRecoveryFailed},
		{"v = 2", withV(2), crypto.ErrRecoveryFailed},
		{"v = 27", withV(27), crypto.ErrRecoveryFailed},
		{"v = 28", withV(28), crypto.ErrRecoveryFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := crypto.RecoverClientAddress(tc.sig, msg)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
