// Package memory provides an in-memory implementation of the storage interface.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/engram/engram/pkg/storage"
)

// MemoryStorage implements the Storage interface using an in-memory map.
//
// Expired entries are dropped lazily on read. Values are copied on write
// and read so callers cannot alias the stored bytes.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStorage creates a new in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]entry),
	}
}

// Get retrieves the value stored under key.
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return nil, &storage.NotFoundError{Key: key}
	}

	if e.expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock; a writer may have replaced the entry.
		if cur, ok := m.entries[key]; ok && cur.expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, &storage.NotFoundError{Key: key}
	}

	copied := make([]byte, len(e.value))
	copy(copied, e.value)
	return copied, nil
}

// Set stores value under key with an optional TTL.
func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	e := entry{value: copied}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds for in-memory storage.
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of live entries.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	count := 0
	for _, e := range m.entries {
		if !e.expired(now) {
			count++
		}
	}
	return count
}

// Close closes the storage (no-op for memory storage).
func (m *MemoryStorage) Close() error {
	return nil
}
