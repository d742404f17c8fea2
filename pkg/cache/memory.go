package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

// Memory is an in-process TTL store guarded by a mutex. Expired entries
// are dropped lazily on read and swept when the map grows past maxSize.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]memoryItem
	clock   Clock
	maxSize int
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithClock injects a clock. Tests use this to control expiry.
func WithClock(clk Clock) MemoryOption {
	return func(m *Memory) {
		m.clock = clk
	}
}

// WithMaxSize bounds the number of live entries before a sweep runs.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// NewMemory creates an in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		data:    make(map[string]memoryItem),
		clock:   SystemClock{},
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.data) >= m.maxSize {
		m.sweepLocked()
	}

	expireAt := m.clock.Now().Add(ttl)
	if ttl <= 0 {
		expireAt = m.clock.Now().Add(24 * time.Hour)
	}

	m.data[key] = memoryItem{value: value, expireAt: expireAt}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if m.clock.Now().After(item.expireAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of entries including not-yet-swept expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) sweepLocked() {
	now := m.clock.Now()
	for key, item := range m.data {
		if now.After(item.expireAt) {
			delete(m.data, key)
		}
	}
}
