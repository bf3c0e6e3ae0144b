package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with optional TTL-based expiration.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	puts    int
}

// sweepEvery is how many Puts pass between scans for expired entries.
const sweepEvery = 256

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

// NewMemoryStore creates a MemoryStore. A ttl <= 0 keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.ttl > 0 {
		m.puts++
		if m.puts >= sweepEvery {
			m.puts = 0
			m.evictExpired(now)
		}
	}

	me := memoryEntry{entry: e}
	if m.ttl > 0 {
		me.expires = now.Add(m.ttl)
	}
	m.entries[key] = me
	return nil
}

// evictExpired drops every entry expired at now. Callers hold the write lock.
func (m *MemoryStore) evictExpired(now time.Time) {
	for k, me := range m.entries {
		if !me.expires.IsZero() && !now.Before(me.expires) {
			delete(m.entries, k)
		}
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	me, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return Entry{}, false, nil
	}
	if !me.expires.IsZero() && !m.now().Before(me.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return Entry{}, false, nil
	}
	return me.entry, true, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
// Expired entries are evicted when read and by a periodic scan during Put.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Store = (*MemoryStore)(nil)
