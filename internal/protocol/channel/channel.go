package channel

import (
	"bytes"
	"strconv"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

// Direction selects the AAD namespace of a frame.
type Direction int

const (
	Message Direction = iota
	Response
	Chunk
)

func (d Direction) prefix() string {
	switch d {
	case Response:
		return "response_"
	case Chunk:
		return "chunk_"
	default:
		return "message_"
	}
}

// AAD returns the associated data for the frame at index n in direction d.
func AAD(d Direction, n uint64) []byte {
	return strconv.AppendUint([]byte(d.prefix()), n, 10)
}

// Seal encrypts plaintext as frame n of direction d.
func Seal(key domain.SessionKey, d Direction, n uint64, plaintext []byte) (domain.EncryptedMessage, error) {
	nonce, err := crypto.NewNonce()
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	aad := AAD(d, n)
	ct, err := crypto.EncryptWithAEAD(plaintext, nonce[:], aad, key[:])
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	return domain.EncryptedMessage{Ciphertext: ct, Nonce: nonce[:], AAD: aad}, nil
}

// Open decrypts msg as frame n of direction d.
//
// The AAD used is always the one derived from n. A sender-supplied AAD is
// optional; when present it must equal the derived one, and a mismatch fails
// exactly like a bad tag.
func Open(key domain.SessionKey, d Direction, n uint64, msg domain.EncryptedMessage) ([]byte, error) {
	aad := AAD(d, n)
	if len(msg.AAD) > 0 && !bytes.Equal(msg.AAD, aad) {
		return nil, crypto.ErrAuthenticationFailed
	}
	return crypto.DecryptWithAEAD(msg.Ciphertext, msg.Nonce, aad, key[:])
}
