package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps sessions in the process. Idle sessions expire after ttl.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store. A ttl of zero disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the sender's session, creating one when absent or expired.
func (m *MemoryStore) Get(_ context.Context, sender string) (*Session, error) {
	if sender == "" {
		return nil, errors.New("session: sender required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sender]
	if !ok || s.Expired(m.now(), m.ttl) {
		delete(m.sessions, sender)
		return New(), nil
	}
	return s.Clone(), nil
}

// Put stores a copy of s and stamps its update time.
func (m *MemoryStore) Put(_ context.Context, sender string, s *Session) error {
	if sender == "" {
		return errors.New("session: sender required")
	}
	if s == nil {
		return errors.New("session: nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.sessions[sender] = s.Clone()
	return nil
}

// Reset forgets the sender; the next Get starts a fresh dialogue.
func (m *MemoryStore) Reset(_ context.Context, sender string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sender)
	return nil
}

// Len returns the number of tracked senders, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for sender, s := range m.sessions {
		if s.Expired(now, m.ttl) {
			delete(m.sessions, sender)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}
