package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/protocol/sessioninit"
)

// ErrNoNodeKey is returned when the service was built without a node key.
var ErrNoNodeKey = domain.ErrNodeKeyMissing

// Service turns session-init payloads into stored sessions.
//
// The node key is held for the life of the service and wiped by Shutdown.
type Service struct {
	store domain.SessionStore
	inits *semaphore.Weighted
	now   func() time.Time

	// keyMu is held for reading across each decrypt so Shutdown cannot wipe
	// the key mid-use.
	keyMu   sync.RWMutex
	nodeKey domain.NodePrivateKey
	hasKey  bool
}

// New builds a Service. maxConcurrentInits bounds parallel decryptions; values
// below one are treated as one.
func New(store domain.SessionStore, nodeKey domain.NodePrivateKey, maxConcurrentInits int) *Service {
	if maxConcurrentInits < 1 {
		maxConcurrentInits = 1
	}
	var zero domain.NodePrivateKey
	return &Service{
		store:   store,
		nodeKey: nodeKey,
		hasKey:  nodeKey != zero,
		inits:   semaphore.NewWeighted(int64(maxConcurrentInits)),
		now:     time.Now,
	}
}

// Establish decrypts payload and stores the session under sessionID. An empty
// sessionID is replaced with a fresh UUID.
//
// Nothing is stored when decryption fails, so the client may retry with a new
// payload. A second init for a live sessionID is rejected with
// store.ErrSessionExists and does not touch the existing session.
//
// The returned Session carries no key material.
func (s *Service) Establish(
	ctx context.Context,
	sessionID string,
	chainID uint64,
	payload domain.EncryptedSessionPayload,
) (domain.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := s.inits.Acquire(ctx, 1); err != nil {
		return domain.Session{}, err
	}
	defer s.inits.Release(1)

	log := logrus.WithFields(logrus.Fields{
		"function":   "Establish",
		"session_id": sessionID,
		"chain_id":   chainID,
	})

	data, err := s.decrypt(payload)
	if err != nil {
		log.WithFields(logrus.Fields{
			"error": err.Error(),
			"kind":  crypto.KindOf(err).String(),
		}).Warn("Session init rejected")
		return domain.Session{}, err
	}
	if err := ctx.Err(); err != nil {
		crypto.WipeSessionKey(&data.SessionKey)
		return domain.Session{}, err
	}

	now := s.now()
	sess := domain.Session{
		ID:            sessionID,
		JobID:         data.JobID,
		ModelName:     data.ModelName,
		PricePerToken: data.PricePerToken,
		ClientAddress: data.ClientAddress,
		ChainID:       chainID,
		Key:           data.SessionKey,
		State:         domain.StateEstablished,
		CreatedAt:     now,
		LastSeen:      now,
	}
	crypto.WipeSessionKey(&data.SessionKey)

	if err := s.store.Insert(sess); err != nil {
		crypto.WipeSessionKey(&sess.Key)
		log.WithField("error", err.Error()).Warn("Session init not stored")
		return domain.Session{}, fmt.Errorf("establish %s: %w", sessionID, err)
	}
	crypto.WipeSessionKey(&sess.Key)

	log.WithFields(logrus.Fields{
		"job_id":          sess.JobID,
		"model":           sess.ModelName,
		"client_address":  sess.ClientAddress,
		"price_per_token": sess.PricePerToken,
	}).Info("Encrypted session established")
	return sess, nil
}

func (s *Service) decrypt(payload domain.EncryptedSessionPayload) (domain.SessionInitData, error) {
	s.keyMu.RLock()
	defer s.keyMu.RUnlock()
	if !s.hasKey {
		return domain.SessionInitData{}, ErrNoNodeKey
	}
	return sessioninit.Decrypt(payload, s.nodeKey[:])
}

// Close removes the session and zeroes its key. It reports whether the
// session existed.
func (s *Service) Close(sessionID string) bool {
	ok := s.store.Remove(sessionID)
	if ok {
		logrus.WithFields(logrus.Fields{
			"function":   "Close",
			"session_id": sessionID,
		}).Info("Session closed")
	}
	return ok
}

// RunSweeper removes expired sessions every interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if n := s.store.Sweep(now); n > 0 {
				logrus.WithFields(logrus.Fields{
					"function":  "RunSweeper",
					"expired":   n,
					"remaining": s.store.Count(),
				}).Info("Expired sessions cleared")
			}
		}
	}
}

// Shutdown drops every session and wipes the node key. Call it once the
// transport has stopped accepting frames.
func (s *Service) Shutdown() {
	s.keyMu.Lock()
	crypto.WipeNodeKey(&s.nodeKey)
	s.hasKey = false
	s.keyMu.Unlock()
	s.store.Clear()
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
