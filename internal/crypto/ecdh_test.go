package crypto_test

import (
	"encoding/hex"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
)

// scalar returns the 32-byte big-endian encoding of a small private scalar.
func scalar(n byte) []byte {
	b := make([]byte, 32)
	b[31] = n
	return b
}

func TestDeriveSharedKey_KnownAnswer(t *testing.T) {
	// Private scalars 7 and 11; x-coordinate of 77G through HKDF-SHA256 with
	// empty salt and info.
	const want = "64e84939092da6845e908cfdc59abd3814d6d44da8f2c95820907605508595cf"
	pub11, err := hex.DecodeString("03774ae7f858a9411e5ef4246b70c65aac5649980be5c17891bbec17895da008cb")
	require.NoError(t, err)
	pub7, err := hex.DecodeString("025cbdf0646e5db4eaa398f365f2ea7a0e3d419b7e0330e39ce92bddedcac4f9bc")
	require.NoError(t, err)

	priv11, err := ethcrypto.ToECDSA(scalar(11))
	require.NoError(t, err)
	require.Equal(t, pub11, ethcrypto.CompressPubkey(&priv11.PublicKey))

	k, err := crypto.DeriveSharedKey(pub11, scalar(7))
	require.NoError(t, err)
	assert.Equal(t, want, hex.EncodeToString(k[:]))

	k, err = crypto.DeriveSharedKey(pub7, scalar(11))
	require.NoError(t, err)
	assert.Equal(t, want, hex.EncodeToString(k[:]))
}

func TestDeriveSharedKey_Symmetric(t *testing.T) {
	for i := 0; i < 8; i++ {
		a, err := ethcrypto.GenerateKey()
		require.NoError(t, err)
		b, err := ethcrypto.GenerateKey()
		require.NoError(t, err)

		ab, err := crypto.DeriveSharedKey(ethcrypto.CompressPubkey(&b.PublicKey), ethcrypto.FromECDSA(a))
		require.NoError(t, err)
		ba, err := crypto.DeriveSharedKey(ethcrypto.FromECDSAPub(&a.PublicKey), ethcrypto.FromECDSA(b))
		require.NoError(t, err)

		assert.Equal(t, ab, ba)
		assert.NotEqual(t, [32]byte{}, ab)
	}
}

func TestDeriveSharedKey_CompressedAndUncompressedAgree(t *testing.T) {
	a, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	b, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	k1, err := crypto.DeriveSharedKey(ethcrypto.CompressPubkey(&b.PublicKey), ethcrypto.FromECDSA(a))
	require.NoError(t, err)
	k2, err := crypto.DeriveSharedKey(ethcrypto.FromECDSAPub(&b.PublicKey), ethcrypto.FromECDSA(a))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestDeriveSharedKey_DistinctPeers(t *testing.T) {
	a, _ := ethcrypto.GenerateKey()
	b, _ := ethcrypto.GenerateKey()
	c, _ := ethcrypto.GenerateKey()

	ab, err := crypto.DeriveSharedKey(ethcrypto.CompressPubkey(&b.PublicKey), ethcrypto.FromECDSA(a))
	require.NoError(t, err)
	ac, err := crypto.DeriveSharedKey(ethcrypto.CompressPubkey(&c.PublicKey), ethcrypto.FromECDSA(a))
	require.NoError(t, err)
	assert.NotEqual(t, ab, ac)
}

func TestDeriveSharedKey_InvalidInputs(t *testing.T) {
	a, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	priv := ethcrypto.FromECDSA(a)
	pub := ethcrypto.CompressPubkey(&a.PublicKey)

	cases := []struct {
		name string
		pub  []byte
		priv []byte
		want error
	}{
		{"empty public key", nil, priv, crypto.ErrInvalidPublicKey},
		{"short public key", pub[:32], priv, crypto.ErrInvalidPublicKey},
		{"bad prefix", append([]byte{0x05}, pub[1:]...), priv, crypto.ErrInvalidPublicKey},
		{"uncompressed off curve", append([]byte{0x04}, make([]byte, 64)...), priv, crypto.ErrInvalidPublicKey},
		{"short private key", pub, priv[:31], crypto.ErrInvalidKeyLength},
		{"zero private key", pub, make([]byte, 32), crypto.ErrInvalidPrivateKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := crypto.DeriveSharedKey(tc.pub, tc.priv)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParsePublicKey_RoundTrip(t *testing.T) {
	a, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	p1, err := crypto.ParsePublicKey(ethcrypto.CompressPubkey(&a.PublicKey))
	require.NoError(t, err)
	p2, err := crypto.ParsePublicKey(ethcrypto.FromECDSAPub(&a.PublicKey))
	require.NoError(t, err)
	assert.Zero(t, p1.X.Cmp(p2.X))
	assert.Zero(t, p1.Y.Cmp(p2.Y))
}
