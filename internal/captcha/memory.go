package captcha

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	expected  int
	expiresAt time.Time
}

// MemoryStore is the single-process SessionStore used when Redis is not
// configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, sessionToken string, expected int, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.entries[sessionToken] = memoryEntry{expected: expected, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, sessionToken string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionToken]
	delete(m.entries, sessionToken)
	if !ok || m.now().After(e.expiresAt) {
		return 0, ErrNoChallenge
	}
	return e.expected, nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// sweep drops expired entries; callers hold mu.
func (m *MemoryStore) sweep() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
