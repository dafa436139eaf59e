// Package testutil provides test doubles for the cache coordinator.
package testutil

import (
	"sync"

	"github.com/meigma/imagecache/store"
)

// FlakyStore wraps a store and refuses a configurable number of Insert
// calls with store.ErrCapacityExceeded even when the wrapped store has
// room. It models the external store's remove-then-insert race, where an
// insert can transiently fail right after a victim was freed.
type FlakyStore struct {
	store.Store

	mu       sync.Mutex
	refusals int
	inserts  int
}

// NewFlakyStore wraps st. Arm refusals with Refuse.
func NewFlakyStore(st store.Store) *FlakyStore {
	return &FlakyStore{Store: st}
}

// Refuse makes the next n Insert calls fail with store.ErrCapacityExceeded.
func (s *FlakyStore) Refuse(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refusals = n
}

// Insert refuses while armed refusals remain, then delegates.
func (s *FlakyStore) Insert(key string, payload []byte) error {
	s.mu.Lock()
	s.inserts++
	refuse := s.refusals > 0
	if refuse {
		s.refusals--
	}
	s.mu.Unlock()

	if refuse {
		return store.ErrCapacityExceeded
	}
	return s.Store.Insert(key, payload)
}

// Inserts returns the number of Insert attempts observed.
func (s *FlakyStore) Inserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// FailingKV is an index backing whose Save always fails, for exercising
// persistence failure paths. Load succeeds with an empty mapping.
type FailingKV struct {
	Err error
}

// Load reports an empty namespace.
func (kv *FailingKV) Load(string) (map[string]float64, error) {
	return nil, nil
}

// Save fails with the configured error.
func (kv *FailingKV) Save(string, map[string]float64) error {
	return kv.Err
}
