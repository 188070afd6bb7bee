package session

import (
	"errors"
	"sync"
)

// ErrSessionActive signals that the provider already has an attempt in
// flight. A completed session is discarded on the next start instead.
var ErrSessionActive = errors.New("another session is already active")

// Manager holds at most one live session per provider. Sessions are
// in-memory; durability comes from the autosave hash and attempt rows, so
// a lost session is rebuilt via Resume rather than kept here.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int]*Session)}
}

// Get returns the provider's current session, if any.
func (m *Manager) Get(providerID int) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[providerID]
	return s, ok
}

// Put registers a new session for the provider. If an active session
// exists it returns ErrSessionActive; a finished or never-started session
// is torn down and replaced.
func (m *Manager) Put(providerID int, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[providerID]; ok {
		if existing.Status().Active() {
			return ErrSessionActive
		}
		existing.Teardown()
	}
	m.sessions[providerID] = s
	return nil
}

// Release tears down and removes the provider's session, if any.
func (m *Manager) Release(providerID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[providerID]; ok {
		s.Teardown()
		delete(m.sessions, providerID)
	}
}

// TeardownAll stops every countdown. Called on shutdown.
func (m *Manager) TeardownAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.Teardown()
		delete(m.sessions, id)
	}
}
