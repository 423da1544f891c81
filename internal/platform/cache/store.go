// Package cache provides short lived TTL caches over a pluggable byte store.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte level key value store with per entry expiry.
type Store interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memEntry struct {
	val       []byte
	expiresAt time.Time
}

// sweepEvery is how many writes pass between expired entry sweeps.
const sweepEvery = 1024

// MemoryStore is an in-process Store. Entries expire on read; writes periodically drop expired keys.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]memEntry
	writes int
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && !s.now().Before(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set replaces the entry wholesale. The slice is stored as is and must not be mutated afterwards.
func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.items[key] = memEntry{val: val, expiresAt: now.Add(ttl)}
	s.writes++
	if s.writes%sweepEvery == 0 {
		for k, e := range s.items {
			if !now.Before(e.expiresAt) {
				delete(s.items, k)
			}
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
