package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process cache used when Redis is not configured.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memEntry
	ttl   time.Duration
	max   int
	now   func() time.Time
}

// NewMemory returns a cache whose entries expire after ttl; ttl <= 0 keeps them forever.
// At most maxEntries are held (maxEntries <= 0 means unbounded).
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{items: make(map[string]memEntry), ttl: ttl, max: maxEntries, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	e := memEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists && m.max > 0 && len(m.items) >= m.max {
		m.evictLocked()
	}
	m.items[key] = e
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when none have expired.
func (m *Memory) evictLocked() {
	now := m.now()
	var (
		victim string
		oldest time.Time
	)
	for k, e := range m.items {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.items, k)
			continue
		}
		if victim == "" || e.expires.Before(oldest) {
			victim, oldest = k, e.expires
		}
	}
	if len(m.items) >= m.max && victim != "" {
		delete(m.items, victim)
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
