package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store persists per-session state between requests
type Store interface {
	// Load returns the session's state, or a new state if none is stored
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, id string, st *State) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	data     []byte
	lastSeen time.Time
}

// NewMemoryStore creates a store that forgets sessions idle for longer than ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

// Load implements Store
func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok || m.expired(entry) {
		return NewState(), nil
	}
	st := NewState()
	if err := json.Unmarshal(entry.data, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Save implements Store. States are stored as encoded copies so callers
// never share slices across requests.
func (m *MemoryStore) Save(_ context.Context, id string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{data: data, lastSeen: m.now()}
	for k, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, k)
		}
	}
	return nil
}

// Len is the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}
