package index

import "sync"

// KV persists per-namespace key/timestamp mappings.
//
// The index saves its full mapping after every mutation, so Save must be
// atomic with respect to concurrent Loads (readers see either the old or
// the new mapping, never a partial one).
type KV interface {
	// Load returns the mapping last saved under namespace, or (nil, nil)
	// when nothing has been saved yet.
	Load(namespace string) (map[string]float64, error)

	// Save durably replaces the mapping stored under namespace.
	Save(namespace string, entries map[string]float64) error
}

// MemKV is an in-memory KV. It does not survive process restarts and
// exists for tests and ephemeral caches.
type MemKV struct {
	mu         sync.Mutex
	namespaces map[string]map[string]float64
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{namespaces: make(map[string]map[string]float64)}
}

// Load returns a copy of the mapping stored under namespace.
func (kv *MemKV) Load(namespace string) (map[string]float64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	stored, ok := kv.namespaces[namespace]
	if !ok {
		return nil, nil
	}
	return copyEntries(stored), nil
}

// Save stores a copy of entries under namespace.
func (kv *MemKV) Save(namespace string, entries map[string]float64) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.namespaces[namespace] = copyEntries(entries)
	return nil
}

func copyEntries(entries map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out
}
