package core

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is the in-memory implementation of SessionStore.
// Sessions expire after an idle TTL; expired entries are reported as
// ErrSessionExpired on access and reaped by GCExpired.
type MemorySessionStore struct {
	mu     sync.RWMutex
	store  map[string]*sessionEntry
	ttl    time.Duration
	logger Logger
	// now is swapped in tests to control expiry.
	now func() time.Time
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemorySessionStore{
		store:  make(map[string]*sessionEntry),
		ttl:    ttl,
		logger: &NoOpLogger{},
		now:    time.Now,
	}
}

// SetLogger configures the logger for this store.
// The logger is wrapped with component "planner/core" when possible.
func (m *MemorySessionStore) SetLogger(logger Logger) {
	if logger == nil {
		m.logger = &NoOpLogger{}
		return
	}
	if cal, ok := logger.(ComponentAwareLogger); ok {
		m.logger = cal.WithComponent("planner/core")
	} else {
		m.logger = logger
	}
}

// Get retrieves a session by id, refreshing its last-active time.
func (m *MemorySessionStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, exists := m.store[id]
	m.mu.RUnlock()

	if !exists {
		return nil, NewPlannerError("sessions.Get", "session", ErrSessionNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if m.expired(entry.session) {
		m.remove(id)
		return nil, NewPlannerError("sessions.Get", "session", ErrSessionExpired)
	}

	entry.session.LastActive = m.now()
	return entry.session, nil
}

// Put stores or replaces a session.
func (m *MemorySessionStore) Put(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return NewPlannerError("sessions.Put", "session", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session.LastActive = m.now()
	if entry, exists := m.store[session.ID]; exists {
		entry.session = session
		return nil
	}
	m.store[session.ID] = &sessionEntry{session: session}

	m.logger.Debug("Session stored", map[string]interface{}{
		"operation":  "session_put",
		"session_id": session.ID,
		"city":       session.City,
	})
	return nil
}

// Delete removes a session. Idempotent.
func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, existed := m.store[id]
	delete(m.store, id)
	m.mu.Unlock()

	m.logger.Debug("Session deleted", map[string]interface{}{
		"operation":  "session_delete",
		"session_id": id,
		"existed":    existed,
	})
	return nil
}

// Update runs fn on the session while holding its per-key lock. This is
// the exclusivity Select relies on: two concurrent selections on the
// same session serialize here, while other sessions proceed unblocked.
func (m *MemorySessionStore) Update(ctx context.Context, id string, fn func(*Session) error) error {
	m.mu.RLock()
	entry, exists := m.store[id]
	m.mu.RUnlock()

	if !exists {
		return NewPlannerError("sessions.Update", "session", ErrSessionNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if m.expired(entry.session) {
		m.remove(id)
		return NewPlannerError("sessions.Update", "session", ErrSessionExpired)
	}

	// fn works on a copy with its own state maps and history, so a failed
	// update leaves the stored session as it was.
	working := *entry.session
	working.Initial = entry.session.Initial.Clone()
	working.State = entry.session.State.Clone()
	working.History = append([]Selection(nil), entry.session.History...)
	if err := fn(&working); err != nil {
		return err
	}
	working.LastActive = m.now()
	entry.session = &working
	return nil
}

// GCExpired removes sessions idle past the TTL and reports how many.
func (m *MemorySessionStore) GCExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.store {
		if m.expired(entry.session) {
			delete(m.store, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("Expired sessions reaped", map[string]interface{}{
			"operation": "session_gc",
			"removed":   removed,
			"remaining": len(m.store),
		})
	}
	return removed, nil
}

// Len reports the number of live entries (including not-yet-reaped
// expired ones).
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func (m *MemorySessionStore) expired(s *Session) bool {
	return m.now().Sub(s.LastActive) > m.ttl
}

func (m *MemorySessionStore) remove(id string) {
	m.mu.Lock()
	delete(m.store, id)
	m.mu.Unlock()
}
