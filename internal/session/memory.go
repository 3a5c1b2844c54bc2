package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Values are stored serialized so a
// caller never shares mutable state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[s.ID] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired sessions.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}
