package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Manager hands out one Session per device and evicts sessions that have been idle too long.
// At most maxSessions are open at once; opening one more evicts the least recently used.
type Manager struct {
	store       Store
	logger      *slog.Logger
	idleTimeout time.Duration
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager; maxSessions <= 0 means no limit.
func NewManager(store Store, logger *slog.Logger, idleTimeout time.Duration, maxSessions int) *Manager {
	return &Manager{
		store:       store,
		logger:      logger.With("component", "cart"),
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
	}
}

// Session returns the open session for the device, opening (and rehydrating) one if needed.
func (m *Manager) Session(deviceID string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[deviceID]; ok {
		s.touch()
		m.mu.Unlock()
		return s
	}

	var evicted *Session
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		evicted = m.leastRecentlyUsed()
		delete(m.sessions, evicted.DeviceID())
	}

	s := OpenSession(deviceID, m.store, m.logger)
	m.sessions[deviceID] = s
	m.mu.Unlock()

	if evicted != nil {
		// the evicted cart is flushed so it rehydrates intact when its device returns
		if err := evicted.Close(context.Background()); err != nil {
			m.logger.Error("close evicted cart session", "device_id", evicted.DeviceID(), "error", err)
		}
	}
	return s
}

// leastRecentlyUsed must be called with m.mu held and at least one session open.
func (m *Manager) leastRecentlyUsed() *Session {
	var (
		oldest     *Session
		oldestSeen time.Time
	)
	for _, s := range m.sessions {
		seen := s.idleSince()
		if oldest == nil || seen.Before(oldestSeen) {
			oldest, oldestSeen = s, seen
		}
	}
	return oldest
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) evictIdle(ctx context.Context, now time.Time) {
	var idle []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.idleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			m.logger.ErrorContext(ctx, "close idle cart session", "device_id", s.DeviceID(), "error", err)
		}
	}
}

// Close flushes and closes every open session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
