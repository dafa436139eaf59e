package imagecache

import "github.com/meigma/imagecache/index"

// selectVictim returns the key with the oldest timestamp. Ties go to the
// entry seen first during enumeration; snapshot order is unspecified.
// ok is false when the snapshot is empty.
//
// One rule serves both policies: FIFO and LRU differ in when timestamps
// are refreshed, not in how the victim is chosen.
func selectVictim(entries []index.Entry) (key string, ok bool) {
	if len(entries) == 0 {
		return "", false
	}
	victim := entries[0]
	for _, e := range entries[1:] {
		if e.Timestamp < victim.Timestamp {
			victim = e
		}
	}
	return victim.Key, true
}
