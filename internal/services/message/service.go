package message

import (
	"time"

	"github.com/sirupsen/logrus"

	"llmnode/internal/domain"
	"llmnode/internal/protocol/channel"
)

// ErrNoSession indicates there is no live session with the given id.
var ErrNoSession = domain.ErrSessionNotFound

// Service seals and opens session frames.
type Service struct {
	store domain.SessionStore
	now   func() time.Time
}

// New returns a Service over the given session store.
func New(s domain.SessionStore) *Service {
	return &Service{store: s, now: time.Now}
}

// Open decrypts the next client message of the session. On success the
// session becomes Active and its inbound counter advances.
func (s *Service) Open(sessionID string, msg domain.EncryptedMessage) ([]byte, error) {
	var (
		plaintext []byte
		index     uint64
	)
	err := s.store.Update(sessionID, func(sess *domain.Session) error {
		index = sess.Inbound
		pt, err := channel.Open(sess.Key, channel.Message, sess.Inbound, msg)
		if err != nil {
			return err
		}
		plaintext = pt
		sess.Inbound++
		sess.State = domain.StateActive
		sess.LastSeen = s.now()
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Open",
			"session_id": sessionID,
			"index":      index,
			"error":      err.Error(),
		}).Warn("Encrypted message rejected")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function":   "Open",
		"session_id": sessionID,
		"index":      index,
		"bytes":      len(plaintext),
	}).Debug("Encrypted message opened")
	return plaintext, nil
}

// SealChunk encrypts one streamed chunk and returns it with its index.
func (s *Service) SealChunk(sessionID string, plaintext []byte) (domain.EncryptedMessage, uint64, error) {
	var (
		out   domain.EncryptedMessage
		index uint64
	)
	err := s.store.Update(sessionID, func(sess *domain.Session) error {
		msg, err := channel.Seal(sess.Key, channel.Chunk, sess.Chunks, plaintext)
		if err != nil {
			return err
		}
		out, index = msg, sess.Chunks
		sess.Chunks++
		sess.LastSeen = s.now()
		return nil
	})
	if err != nil {
		return domain.EncryptedMessage{}, 0, err
	}
	return out, index, nil
}

// SealResponse encrypts the final frame of a response.
func (s *Service) SealResponse(sessionID string, plaintext []byte) (domain.EncryptedMessage, error) {
	var out domain.EncryptedMessage
	err := s.store.Update(sessionID, func(sess *domain.Session) error {
		msg, err := channel.Seal(sess.Key, channel.Response, sess.Outbound, plaintext)
		if err != nil {
			return err
		}
		out = msg
		sess.Outbound++
		sess.LastSeen = s.now()
		return nil
	})
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	return out, nil
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
