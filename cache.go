package imagecache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/meigma/imagecache/index"
	"github.com/meigma/imagecache/store"
)

// Cache coordinates a bounded store and a timestamp index.
//
// All mutating operations run under one mutex, so the store and the index
// are only ever mutated as a pair: an observer never sees a key present in
// one but absent from the other. Concurrent Put calls observe a total
// order of mutations.
type Cache struct {
	mu    sync.Mutex
	store store.Store
	index *index.Index

	logger     *slog.Logger
	now        func() time.Time
	newBackOff func() backoff.BackOff
	capLimit   int
}

// New creates a cache coordinating st and idx.
func New(st store.Store, idx *index.Index, opts ...Option) (*Cache, error) {
	if st == nil {
		return nil, errors.New("imagecache: nil store")
	}
	if idx == nil {
		return nil, errors.New("imagecache: nil index")
	}
	c := &Cache{
		store:      st,
		index:      idx,
		now:        time.Now,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Put caches payload and returns its key.
//
// An already-cached payload is never stored twice; under LRU the hit
// refreshes the key's timestamp. A refused insertion triggers eviction
// and retry until the store accepts the payload, so capacity never
// surfaces as an error. Put fails only when the store or the index
// backing itself fails.
//
// Policy applies to this call alone: it decides whether a hit refreshes
// the timestamp. Victim selection is policy-independent.
func (c *Cache) Put(payload []byte, policy Policy) (string, error) {
	key := Key(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.store.Exists(key)
	if err != nil {
		return "", fmt.Errorf("imagecache: exists %s: %w", key, err)
	}
	if exists {
		// A present key with no index record is an inconsistency;
		// recording a timestamp on hit repairs it under either policy.
		_, tracked := c.index.Get(key)
		if policy == LRU || !tracked {
			if err := c.index.Set(key, c.seconds()); err != nil {
				return "", err
			}
		}
		return key, nil
	}

	if err := c.insert(key, payload); err != nil {
		return "", err
	}
	return key, nil
}

// insert runs the eviction-retry loop. Callers must hold c.mu.
//
// Each refused attempt evicts exactly one entry, so the loop is bounded
// by store occupancy; the empty-index fallback guarantees progress when
// the index and store have diverged.
func (c *Cache) insert(key string, payload []byte) error {
	bo := c.newBackOff()
	for {
		err := c.tryInsert(key, payload)
		if err == nil {
			return c.commit(key)
		}
		if !errors.Is(err, store.ErrCapacityExceeded) {
			return fmt.Errorf("imagecache: insert %s: %w", key, err)
		}

		victim, ok := selectVictim(c.index.Entries())
		if !ok {
			return c.heal(key, payload)
		}

		c.log().Debug("evicting for capacity", "victim", victim, "key", key)
		if err := c.store.Remove(victim); err != nil {
			return fmt.Errorf("imagecache: remove victim %s: %w", victim, err)
		}
		if err := c.index.Remove(victim); err != nil {
			return err
		}

		// The store can transiently refuse an insert right after a
		// remove of a differently-keyed entry. Pause before retrying;
		// holding the lock serializes the retries instead of letting
		// concurrent callers race into the same window.
		if d := bo.NextBackOff(); d > 0 {
			time.Sleep(d)
		}
	}
}

// heal recovers from a full store with an empty index: entries were added
// outside the coordinator or a prior crash lost the index. Single-key
// eviction cannot make progress, so both sides are reset and the insert
// retried once. Callers must hold c.mu.
func (c *Cache) heal(key string, payload []byte) error {
	c.log().Warn("store refused insert with empty index, clearing store", "key", key)
	if err := c.index.Clear(); err != nil {
		return err
	}
	if err := c.store.RemoveAll(); err != nil {
		return fmt.Errorf("imagecache: clear store: %w", err)
	}
	if err := c.tryInsert(key, payload); err != nil {
		return fmt.Errorf("imagecache: insert %s after clear: %w", key, err)
	}
	return c.commit(key)
}

// tryInsert attempts the store insertion, short-circuiting with the
// capacity signal when the debug cap is configured and reached.
// Callers must hold c.mu.
func (c *Cache) tryInsert(key string, payload []byte) error {
	if c.capLimit > 0 {
		n, err := c.store.Count()
		if err != nil {
			return err
		}
		if n >= c.capLimit {
			return store.ErrCapacityExceeded
		}
	}
	return c.store.Insert(key, payload)
}

// commit records the timestamp for a freshly inserted key. A failed
// record removes the payload again so the store and index stay in
// lock-step. Callers must hold c.mu.
func (c *Cache) commit(key string) error {
	if err := c.index.Set(key, c.seconds()); err != nil {
		_ = c.store.Remove(key)
		return err
	}
	return nil
}

// Remove evicts key explicitly, deleting it from the store and the index.
// Removing an absent key is not an error.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(key); err != nil {
		return fmt.Errorf("imagecache: remove %s: %w", key, err)
	}
	return c.index.Remove(key)
}

// Clear removes every cached payload and its metadata.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.RemoveAll(); err != nil {
		return fmt.Errorf("imagecache: clear store: %w", err)
	}
	return c.index.Clear()
}

// Keys returns a snapshot of the cached keys in unspecified order.
// The snapshot is eventually consistent with concurrent Put calls.
func (c *Cache) Keys() []string {
	entries := c.index.Entries()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Len returns the number of tracked keys.
func (c *Cache) Len() int {
	return c.index.Len()
}

func (c *Cache) seconds() float64 {
	t := c.now()
	return float64(t.UnixNano()) / float64(time.Second)
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
