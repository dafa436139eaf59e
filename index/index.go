// Package index provides the persisted timestamp index used to pick
// eviction victims.
//
// The index maps cache keys to timestamps (seconds since the Unix epoch)
// and writes through to a pluggable KV backing after every mutation, so
// eviction metadata survives process restarts without persisting the
// payloads themselves.
package index

import (
	"fmt"
	"sync"
)

// Entry is one key/timestamp pair from an index snapshot.
type Entry struct {
	Key       string
	Timestamp float64
}

// Index is a persisted mapping from cache key to timestamp.
//
// Every mutation persists the full mapping before returning, so a caller
// that observes a mutation observes it as durable. Index is safe for
// concurrent use, though the cache coordinator additionally serializes
// index and store mutations as a pair.
type Index struct {
	mu        sync.Mutex
	kv        KV
	namespace string
	entries   map[string]float64
}

// Open loads the index persisted under namespace, or starts empty when
// nothing has been persisted yet.
func Open(kv KV, namespace string) (*Index, error) {
	entries, err := kv.Load(namespace)
	if err != nil {
		return nil, fmt.Errorf("imagecache: load index %q: %w", namespace, err)
	}
	if entries == nil {
		entries = make(map[string]float64)
	}
	return &Index{
		kv:        kv,
		namespace: namespace,
		entries:   entries,
	}, nil
}

// Get returns the timestamp recorded for key.
func (idx *Index) Get(key string) (float64, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	ts, ok := idx.entries[key]
	return ts, ok
}

// Set records ts for key and persists the index. Timestamps never move
// backwards for a key: a ts older than the recorded one is ignored.
func (idx *Index) Set(key string, ts float64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev, existed := idx.entries[key]
	if existed && ts < prev {
		return nil
	}

	idx.entries[key] = ts
	if err := idx.persist(); err != nil {
		if existed {
			idx.entries[key] = prev
		} else {
			delete(idx.entries, key)
		}
		return err
	}
	return nil
}

// Remove deletes the record for key and persists the index.
// Removing an absent key is a no-op.
func (idx *Index) Remove(key string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev, existed := idx.entries[key]
	if !existed {
		return nil
	}

	delete(idx.entries, key)
	if err := idx.persist(); err != nil {
		idx.entries[key] = prev
		return err
	}
	return nil
}

// Clear deletes every record and persists the empty index.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev := idx.entries
	idx.entries = make(map[string]float64)
	if err := idx.persist(); err != nil {
		idx.entries = prev
		return err
	}
	return nil
}

// Entries returns a snapshot of all records in unspecified order.
func (idx *Index) Entries() []Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entries := make([]Entry, 0, len(idx.entries))
	for key, ts := range idx.entries {
		entries = append(entries, Entry{Key: key, Timestamp: ts})
	}
	return entries
}

// Len returns the number of records.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// persist writes the full mapping through to the KV backing.
// Callers must hold idx.mu.
func (idx *Index) persist() error {
	if err := idx.kv.Save(idx.namespace, idx.entries); err != nil {
		return fmt.Errorf("imagecache: persist index %q: %w", idx.namespace, err)
	}
	return nil
}
