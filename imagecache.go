// Package imagecache coordinates a content-addressed cache in front of a
// capacity-bounded payload store.
//
// The store's capacity is unknown; the only capacity signal is a refused
// insertion. The cache deduplicates payloads by content digest, keeps a
// persisted per-key timestamp index, and reacts to refused insertions by
// evicting the oldest entry (FIFO) or least recently used entry (LRU)
// and retrying until the insertion succeeds.
//
// Store backends live in the store/... packages; index persistence
// backings live in the index package and index/bolt.
package imagecache

import "fmt"

// Policy selects which entry is evicted when the store refuses an insertion.
//
// Both policies evict the key with the oldest timestamp; they differ only
// in when a timestamp is refreshed. Under FIFO a timestamp is written once
// at insertion, so eviction follows insertion order. Under LRU a cache hit
// also refreshes the timestamp, so eviction follows recency of use.
type Policy uint8

const (
	FIFO Policy = iota
	LRU
)

func (p Policy) String() string {
	switch p {
	case FIFO:
		return "fifo"
	case LRU:
		return "lru"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name as produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lru":
		return LRU, nil
	default:
		return FIFO, fmt.Errorf("imagecache: unknown policy %q", s)
	}
}
