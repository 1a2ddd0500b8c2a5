package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"io"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

const (
	// CompressedPublicKeySize is the SEC1 compressed point length.
	CompressedPublicKeySize = 33
	// UncompressedPublicKeySize is the SEC1 uncompressed point length.
	UncompressedPublicKeySize = 65
	// PrivateKeySize is the secp256k1 scalar length.
	PrivateKeySize = 32
)

// ParsePublicKey decodes a 33-byte compressed or 65-byte uncompressed SEC1
// secp256k1 point and checks that it lies on the curve.
func ParsePublicKey(b []byte) (*ecdsa.PublicKey, error) {
	var (
		pub *ecdsa.PublicKey
		err error
	)
	switch len(b) {
	case CompressedPublicKeySize:
		pub, err = ethcrypto.DecompressPubkey(b)
	case UncompressedPublicKeySize:
		pub, err = ethcrypto.UnmarshalPubkey(b)
	default:
		return nil, newError(KindInvalidPublicKey, "parse public key", "",
			fmt.Sprintf("expected %d or %d bytes, got %d",
				CompressedPublicKeySize, UncompressedPublicKeySize, len(b)))
	}
	if err != nil {
		return nil, newError(KindInvalidPublicKey, "parse public key", "", "not a valid secp256k1 point")
	}
	return pub, nil
}

// ParsePrivateKey validates a raw 32-byte big-endian scalar.
func ParsePrivateKey(b []byte) (*ecdsa.PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, newError(KindInvalidKeyLength, "parse private key", "private key",
			fmt.Sprintf("expected %d bytes, got %d", PrivateKeySize, len(b)))
	}
	priv, err := ethcrypto.ToECDSA(b)
	if err != nil {
		return nil, newError(KindInvalidPrivateKey, "parse private key", "", "scalar out of range")
	}
	return priv, nil
}

// DeriveSharedKey computes ECDH between ownPrivate and peerPublic on
// secp256k1 and expands the 32-byte x-coordinate with HKDF-SHA256 (empty salt
// and info) into a 32-byte symmetric key.
//
// DeriveSharedKey(A_pub, b_priv) == DeriveSharedKey(B_pub, a_priv).
func DeriveSharedKey(peerPublic, ownPrivate []byte) ([KeySize]byte, error) {
	var out [KeySize]byte

	pub, err := ParsePublicKey(peerPublic)
	if err != nil {
		return out, err
	}
	priv, err := ParsePrivateKey(ownPrivate)
	if err != nil {
		return out, err
	}

	x, _ := ethcrypto.S256().ScalarMult(pub.X, pub.Y, ownPrivate)
	if x == nil || x.Sign() == 0 {
		return out, newError(KindInvalidPublicKey, "ecdh", "", "shared point at infinity")
	}
	var secret [32]byte
	x.FillBytes(secret[:])
	defer Wipe(secret[:])
	defer wipeScalar(priv)

	r := hkdf.New(sha256.New, secret[:], nil, nil)
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return [KeySize]byte{}, fmt.Errorf("hkdf expand: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":        "DeriveSharedKey",
		"peer_key_prefix": Fingerprint(peerPublic)[:8],
	}).Debug("ECDH shared key derived")
	return out, nil
}

func wipeScalar(k *ecdsa.PrivateKey) {
	if k != nil && k.D != nil {
		k.D.SetInt64(0)
	}
}
