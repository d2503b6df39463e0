package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"thumbscope/internal/domain/model"
)

// MemStore is the in-memory Store. A single mutex serializes appends; the
// per-session event slices are only ever replaced, never mutated in place,
// so readers always observe a consistent capped history.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string][]model.SessionEvent
}

// NewMemStore creates an empty in-memory session store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string][]model.SessionEvent)}
}

// GetOrCreate returns id when known, else creates a new session.
func (m *MemStore) GetOrCreate(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if _, ok := m.sessions[id]; ok {
			return id, nil
		}
	}
	newID := uuid.NewString()
	m.sessions[newID] = nil
	return newID, nil
}

// Append adds ev and trims to the cap in one critical section.
func (m *MemStore) Append(_ context.Context, id string, ev model.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := append(m.sessions[id], ev)
	if len(events) > maxEventsPerSession {
		events = events[len(events)-maxEventsPerSession:]
	}
	m.sessions[id] = events
	return nil
}

// Summarize renders the digest for id.
func (m *MemStore) Summarize(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return buildDigest(m.sessions[id]), nil
}

// History returns a copy of the stored events, oldest first.
func (m *MemStore) History(_ context.Context, id string) ([]model.SessionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.sessions[id]
	out := make([]model.SessionEvent, len(events))
	copy(out, events)
	return out, nil
}

// Count returns the number of known sessions.
func (m *MemStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
