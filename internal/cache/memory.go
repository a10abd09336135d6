package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	set       map[string]struct{}
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local Cache for tests and single-node setups.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (m *MemoryCache) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// lookup must be called with mu held.
func (m *MemoryCache) lookup(key string) *memoryEntry {
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return nil
	}
	return entry
}

func (m *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.lookup(key)
	if entry == nil || entry.set != nil {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

func (m *MemoryCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookup(key) != nil {
		return false, nil
	}
	m.entries[key] = &memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return true, nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lookup(key) != nil, nil
}

func (m *MemoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry := m.lookup(key); entry != nil {
		entry.expiresAt = m.expiry(ttl)
	}
	return nil
}

func (m *MemoryCache) SAdd(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.lookup(key)
	if entry == nil || entry.set == nil {
		entry = &memoryEntry{set: make(map[string]struct{})}
		m.entries[key] = entry
	}
	for _, member := range members {
		entry.set[member] = struct{}{}
	}
	return nil
}

func (m *MemoryCache) SRem(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.lookup(key)
	if entry == nil || entry.set == nil {
		return nil
	}
	for _, member := range members {
		delete(entry.set, member)
	}
	if len(entry.set) == 0 {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryCache) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.lookup(key)
	if entry == nil || entry.set == nil {
		return []string{}, nil
	}
	members := make([]string, 0, len(entry.set))
	for member := range entry.set {
		members = append(members, member)
	}
	return members, nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
