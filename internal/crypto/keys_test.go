package crypto_test

import (
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
)

const testNodeKeyHex = "0x0000000000000000000000000000000000000000000000000000000000000001"

func TestParseNodePrivateKeyHex(t *testing.T) {
	key, err := crypto.ParseNodePrivateKeyHex("  " + testNodeKeyHex + "\n")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), key[31])

	cases := []struct {
		name string
		in   string
		want error
	}{
		{"missing prefix", strings.TrimPrefix(testNodeKeyHex, "0x"), crypto.ErrInvalidPrivateKey},
		{"short", testNodeKeyHex[:64], crypto.ErrInvalidKeyLength},
		{"long", testNodeKeyHex + "00", crypto.ErrInvalidKeyLength},
		{"not hex", "0x" + strings.Repeat("zz", 32), crypto.ErrInvalidPrivateKey},
		{"zero scalar", "0x" + strings.Repeat("00", 32), crypto.ErrInvalidPrivateKey},
		{"above group order", "0x" + strings.Repeat("ff", 32), crypto.ErrInvalidPrivateKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := crypto.ParseNodePrivateKeyHex(tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.NotContains(t, err.Error(), strings.TrimPrefix(tc.in, "0x"))
		})
	}
}

func TestNodeKeyFromEnv(t *testing.T) {
	t.Setenv(crypto.NodeKeyEnv, "")
	_, err := crypto.NodeKeyFromEnv()
	assert.ErrorIs(t, err, crypto.ErrNodeKeyUnset)

	t.Setenv(crypto.NodeKeyEnv, testNodeKeyHex)
	key, err := crypto.NodeKeyFromEnv()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), key[31])
}

func TestGenerateNodeKey_PublicKeyAndAddress(t *testing.T) {
	key, err := crypto.GenerateNodeKey()
	require.NoError(t, err)

	pub, err := crypto.PublicKeyOf(key)
	require.NoError(t, err)
	assert.Contains(t, []byte{0x02, 0x03}, pub[0])

	priv, err := ethcrypto.ToECDSA(key[:])
	require.NoError(t, err)
	assert.Equal(t, ethcrypto.CompressPubkey(&priv.PublicKey), pub[:])
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	crypto.Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
