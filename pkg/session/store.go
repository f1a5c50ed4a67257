package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrSessionNotFound reports lookups against unknown session ids.
var ErrSessionNotFound = errors.New("session: not found")

// Store hands out sessions by id. Implementations must be safe for
// concurrent use.
type Store interface {
	// Open returns the session for id, creating it when absent.
	Open(id string) (*Session, error)
	// Get returns the session for id or ErrSessionNotFound.
	Get(id string) (*Session, error)
	// List returns the known session ids in sorted order.
	List() []string
	// Delete closes and forgets the session for id.
	Delete(id string) error
}

// MemoryStore keeps sessions in-process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Open returns the session for id, creating it when absent.
func (m *MemoryStore) Open(id string) (*Session, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[trimmed]; ok {
		return s, nil
	}
	s, err := New(trimmed)
	if err != nil {
		return nil, err
	}
	m.sessions[trimmed] = s
	return s, nil
}

// Get returns the session for id or ErrSessionNotFound.
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns the known session ids in sorted order.
func (m *MemoryStore) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete closes and forgets the session for id.
func (m *MemoryStore) Delete(id string) error {
	trimmed := strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[trimmed]
	if !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, trimmed)
	return s.Close()
}
