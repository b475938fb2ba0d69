// Package session provides the page-session identity used to correlate
// telemetry events, plus the lazily-computed device descriptors attached to
// every event. Both are process-scoped: the session identifier lives for
// the lifetime of the hosting tab/process, and the device descriptors are
// immutable once computed.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Key under which the session identifier is kept in the string store.
const sessionKey = "tripatlas_session_id"

// StringStore is the minimal contract for a page-session-scoped string
// store. Get returns ("", false) for a missing key. Implementations are
// not required to be safe for concurrent use; Manager serializes access.
type StringStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore is the default in-process StringStore.
type MemoryStore struct {
	m map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

// Get returns the stored value for key, and whether it was present.
func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key, value string) { s.m[key] = value }

// Manager owns the session identifier. The first call to ID generates a
// v4 UUID and persists it under a fixed key; every later call returns the
// same value.
type Manager struct {
	mu    sync.Mutex
	store StringStore
}

// NewManager returns a Manager backed by store. A nil store falls back to
// an in-memory one.
func NewManager(store StringStore) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{store: store}
}

// ID returns the session identifier, generating and storing it on first
// access.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.store.Get(sessionKey); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	m.store.Set(sessionKey, id)
	return id
}
