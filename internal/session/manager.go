package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"docintake/internal/domain"
)

// Manager owns all live sessions.
type Manager struct {
	deps    Deps
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	onEvict  []func(*Session)
}

// NewManager creates a Manager. idleTTL <= 0 disables idle eviction.
func NewManager(deps Deps, idleTTL time.Duration) *Manager {
	return &Manager{
		deps:     deps,
		idleTTL:  idleTTL,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// OnRemove registers a hook run after a session is deleted or evicted.
func (m *Manager) OnRemove(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// Create starts a new idle session with the given configuration.
func (m *Manager) Create(cfg domain.SessionConfig) *Session {
	s := New(uuid.New(), cfg, m.deps)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Printf("session.Manager.Create: created session %s", s.id)
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes and removes a session.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	hooks := m.onEvict
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.Close()
	for _, fn := range hooks {
		fn(s)
	}
	log.Printf("session.Manager.Delete: deleted session %s", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions inactive for longer than the idle TTL and
// returns how many were removed.
func (m *Manager) EvictIdle(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	hooks := m.onEvict
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		for _, fn := range hooks {
			fn(s)
		}
	}
	return len(evicted)
}

// StartJanitor evicts idle sessions every interval until ctx is canceled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idleTTL <= 0 {
		log.Printf("sessionJanitor: disabled (interval=%s, idleTTL=%s)", interval, m.idleTTL)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("sessionJanitor: started (interval=%s, idleTTL=%s)", interval, m.idleTTL)

	for {
		select {
		case <-ctx.Done():
			log.Printf("sessionJanitor: shutdown complete")
			return
		case <-ticker.C:
			if n := m.EvictIdle(m.deps.now()); n > 0 {
				log.Printf("sessionJanitor: evicted %d idle sessions", n)
			}
		}
	}
}

// CloseAll closes every session. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
