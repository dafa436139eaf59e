// Package memory provides an in-memory bounded store.
//
// The memory store enforces an entry-count capacity, which makes eviction
// behavior deterministic. It serves as the default backend for embedders
// without external storage and as the test double for the coordinator.
package memory

import (
	"sync"

	"github.com/meigma/imagecache/store"
)

// Store is a capacity-capped in-memory payload store.
type Store struct {
	mu       sync.Mutex
	capacity int
	payloads map[string][]byte
}

// New creates a memory store holding at most capacity payloads.
// A capacity <= 0 means unbounded.
func New(capacity int) *Store {
	return &Store{
		capacity: capacity,
		payloads: make(map[string][]byte),
	}
}

// Exists reports whether a payload is stored under key.
func (s *Store) Exists(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.payloads[key]
	return ok, nil
}

// Insert stores a copy of payload under key.
// Returns store.ErrCapacityExceeded when the store is at capacity and
// key is not already present.
func (s *Store) Insert(key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payloads[key]; !ok && s.capacity > 0 && len(s.payloads) >= s.capacity {
		return store.ErrCapacityExceeded
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.payloads[key] = buf
	return nil
}

// Remove deletes the payload stored under key, if any.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payloads, key)
	return nil
}

// RemoveAll deletes every stored payload.
func (s *Store) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = make(map[string][]byte)
	return nil
}

// Count returns the number of stored payloads.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads), nil
}

// Get returns a copy of the payload stored under key.
// Get is not part of the store contract; it exists for read-side callers
// that resolve keys back to payloads.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.payloads[key]
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return buf, true
}

// Keys returns the stored keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.payloads))
	for key := range s.payloads {
		keys = append(keys, key)
	}
	return keys
}
