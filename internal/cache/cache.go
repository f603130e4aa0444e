// Package cache provides the TTL-bounded result cache used in front of the
// curation pipeline. Values are stored as raw bytes so the backing store can
// be an in-process map or Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the window during which a cached pipeline result is reused.
const DefaultTTL = 30 * time.Minute

// Store is a key/value cache with a fixed TTL. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the value for key, or false if the key is absent or its
	// entry has aged past the TTL. A stale entry is never returned.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Put stores value under key, overwriting any existing entry.
	Put(ctx context.Context, key string, value []byte) error
	// Evict removes key if present.
	Evict(ctx context.Context, key string)
}

type entry struct {
	value      []byte
	insertedAt time.Time
}

// MemoryStore is a process-local Store backed by a map. Growth is unbounded;
// expired entries are removed lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given TTL. A non-positive
// TTL falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if present and fresh.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.insertedAt) >= s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, overwriting any existing entry.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, insertedAt: s.now()}
	return nil
}

// Evict removes key if present.
func (s *MemoryStore) Evict(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been looked up.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
