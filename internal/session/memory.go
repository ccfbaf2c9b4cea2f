package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/todobot/core/logger"
)

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than the TTL read back as idle and are dropped by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore builds a MemoryStore; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock overrides time.Now, for tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}

// Get returns a copy of the stored session, or a fresh idle one.
func (m *MemoryStore) Get(_ context.Context, ownerID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[ownerID]; ok && !m.expired(s, m.now()) {
		return s.clone(), nil
	}
	return New(ownerID), nil
}

// Save stores a copy of s and stamps UpdatedAt. Idle sessions are removed.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !s.Active() {
		delete(m.sessions, s.OwnerID)
		return nil
	}
	s.UpdatedAt = m.now()
	m.sessions[s.OwnerID] = s.clone()
	return nil
}

// Clear removes the session for ownerID.
func (m *MemoryStore) Clear(_ context.Context, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, ownerID)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	left := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		logger.LogEvent(context.Background(), logger.Sessions, slog.LevelInfo, "session.sweep",
			slog.String("status", "ok"),
			slog.String("backend", "memory"),
			slog.Int("removed", removed),
			slog.Int("left", left),
		)
	}
	return removed
}
