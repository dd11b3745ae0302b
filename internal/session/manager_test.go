package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/session"
	"docintake/mocks"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(clock *fakeClock, ttl time.Duration) *session.Manager {
	return session.NewManager(session.Deps{
		Extractor: new(mocks.MockDocumentExtractor),
		Analyzer:  new(mocks.MockDocumentAnalyzer),
		Now:       clock.Now,
	}, ttl)
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := newManager(&fakeClock{now: time.Now()}, time.Minute)

	s := m.Create(testConfig())
	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	var removed []uuid.UUID
	m.OnRemove(func(s *session.Session) { removed = append(removed, s.ID()) })

	require.NoError(t, m.Delete(s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID()), domain.ErrSessionNotFound)
	assert.Equal(t, []uuid.UUID{s.ID()}, removed)
}

func TestManager_EvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
	m := newManager(clock, 10*time.Minute)

	stale := m.Create(domain.SessionConfig{})
	clock.Advance(8 * time.Minute)
	fresh := m.Create(domain.SessionConfig{})
	clock.Advance(3 * time.Minute)

	var evicted []uuid.UUID
	m.OnRemove(func(s *session.Session) { evicted = append(evicted, s.ID()) })

	n := m.EvictIdle(clock.Now())

	assert.Equal(t, 1, n)
	assert.Equal(t, []uuid.UUID{stale.ID()}, evicted)
	_, err := m.Get(stale.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestManager_ActivityKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock, 10*time.Minute)

	s := m.Create(domain.SessionConfig{})
	clock.Advance(9 * time.Minute)
	s.SelectDocument(testDocument("a.pdf"))
	clock.Advance(9 * time.Minute)

	assert.Equal(t, 0, m.EvictIdle(clock.Now()))
}

func TestManager_EvictIdle_DisabledWithoutTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock, 0)
	m.Create(domain.SessionConfig{})
	clock.Advance(24 * time.Hour)

	assert.Equal(t, 0, m.EvictIdle(clock.Now()))
	assert.Equal(t, 1, m.Len())
}

func TestManager_StartJanitor_StopsOnCancel(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock, time.Minute)
	m.Create(domain.SessionConfig{})
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.StartJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestManager_CloseAll(t *testing.T) {
	m := newManager(&fakeClock{now: time.Now()}, time.Minute)
	m.Create(domain.SessionConfig{})
	m.Create(domain.SessionConfig{})

	m.CloseAll()

	assert.Equal(t, 0, m.Len())
}
