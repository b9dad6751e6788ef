package session

import (
	"time"

	"postsmanager/internal/models"
	"postsmanager/internal/observability"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults for NewManager.
const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 30 * time.Minute
)

// Manager is the registry of live page sessions. Sessions idle longer than the
// TTL expire; the least recently used one is evicted when the registry is full.
type Manager struct {
	sessions *expirable.LRU[string, *Session]
	now      func() time.Time
}

// NewManager creates a registry holding at most size sessions.
func NewManager(size int, idleTTL time.Duration) *Manager {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	onEvict := func(_ string, s *Session) {
		s.close()
	}
	return &Manager{
		sessions: expirable.NewLRU[string, *Session](size, onEvict, idleTTL),
		now:      time.Now,
	}
}

// Create starts a session hydrated from rawQuery.
func (m *Manager) Create(rawQuery string) *Session {
	s := newSession(uuid.NewString(), rawQuery, m.now())
	m.sessions.Add(s.ID, s)
	m.report()
	return s
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok || s.closed() {
		return nil, models.NewNotFoundError("Session", id)
	}
	m.sessions.Add(id, s)
	// it may have expired between Get and Add
	if s.closed() {
		m.sessions.Remove(id)
		m.report()
		return nil, models.NewNotFoundError("Session", id)
	}
	return s, nil
}

// Delete discards a session and abandons its in-flight reads.
func (m *Manager) Delete(id string) error {
	defer m.report()
	if !m.sessions.Remove(id) {
		return models.NewNotFoundError("Session", id)
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Purge discards every session.
func (m *Manager) Purge() {
	m.sessions.Purge()
	m.report()
}

func (m *Manager) report() {
	observability.ActiveSessions.Set(float64(m.sessions.Len()))
}
