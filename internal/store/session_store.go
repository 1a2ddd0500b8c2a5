package store

import (
	"sync"
	"time"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

var (
	// ErrSessionExists is returned by Insert when the id is already held.
	ErrSessionExists = domain.ErrSessionExists
	// ErrSessionNotFound is returned by Update for unknown or expired ids.
	ErrSessionNotFound = domain.ErrSessionNotFound
)

type sessionEntry struct {
	mu      sync.Mutex
	s       domain.Session
	removed bool
}

// MemorySessionStore keeps live sessions in memory. Sessions are never
// written to disk: keys die with the process.
//
// A TTL of zero disables expiry.
type MemorySessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewMemorySessionStore returns an empty store whose sessions expire ttl
// after creation.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *MemorySessionStore) WithClock(now func() time.Time) *MemorySessionStore {
	m.now = now
	return m
}

func (m *MemorySessionStore) expired(s *domain.Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.CreatedAt) > m.ttl
}

// Insert adds s unless a live session with the same id exists. An expired
// holder of the id is dropped and replaced.
func (m *MemorySessionStore) Insert(s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[s.ID]; ok {
		e.mu.Lock()
		live := !e.removed && !m.expired(&e.s, m.now())
		if !live {
			dropEntry(e)
		}
		e.mu.Unlock()
		if live {
			return ErrSessionExists
		}
	}
	m.sessions[s.ID] = &sessionEntry{s: s}
	return nil
}

// Get returns a snapshot of the session. The caller owns the copy and should
// wipe its key when done.
func (m *MemorySessionStore) Get(id string) (domain.Session, bool) {
	e := m.entry(id)
	if e == nil {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || m.expired(&e.s, m.now()) {
		return domain.Session{}, false
	}
	return e.s, true
}

// Update applies fn to the session under its lock. Changes are kept only when
// fn returns nil, so a failed decrypt never advances a counter.
func (m *MemorySessionStore) Update(id string, fn func(s *domain.Session) error) error {
	e := m.entry(id)
	if e == nil {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || m.expired(&e.s, m.now()) {
		return ErrSessionNotFound
	}
	next := e.s
	if err := fn(&next); err != nil {
		crypto.WipeSessionKey(&next.Key)
		return err
	}
	e.s = next
	return nil
}

// Remove drops the session and zeroes its key. It reports whether a session
// was held.
func (m *MemorySessionStore) Remove(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return false
	}
	dropEntry(e)
	return true
}

// Sweep removes sessions older than the TTL and returns how many it dropped.
func (m *MemorySessionStore) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		if e.removed || m.expired(&e.s, now) {
			dropEntry(e)
			delete(m.sessions, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Count returns the number of sessions held, expired or not.
func (m *MemorySessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Clear drops every session.
func (m *MemorySessionStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		e.mu.Lock()
		dropEntry(e)
		e.mu.Unlock()
		delete(m.sessions, id)
	}
}

func (m *MemorySessionStore) entry(id string) *sessionEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// dropEntry must be called with e.mu held.
func dropEntry(e *sessionEntry) {
	crypto.WipeSessionKey(&e.s.Key)
	e.s.State = domain.StateClosed
	e.removed = true
}

// Compile-time assertion that MemorySessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*MemorySessionStore)(nil)
