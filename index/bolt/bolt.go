// Package bolt provides a bbolt-backed KV for the timestamp index.
//
// Each namespace maps to one bucket; each record is a key with its
// timestamp stored as a big-endian IEEE 754 value. Use this backing when
// several caches share one metadata file or when the JSON file backing's
// rewrite-per-save becomes a concern.
package bolt

import (
	"encoding/binary"
	"math"

	"go.etcd.io/bbolt"
)

// KV persists index namespaces in a bbolt database.
type KV struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*KV, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

// Close releases the database file.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// Load returns the mapping stored under namespace, or (nil, nil) when the
// namespace bucket does not exist.
func (kv *KV) Load(namespace string) (map[string]float64, error) {
	var entries map[string]float64
	err := kv.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		entries = make(map[string]float64)
		return bucket.ForEach(func(k, v []byte) error {
			entries[string(k)] = decodeTimestamp(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the namespace bucket with entries in one transaction.
func (kv *KV) Save(namespace string, entries map[string]float64) error {
	return kv.db.Update(func(tx *bbolt.Tx) error {
		name := []byte(namespace)
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		bucket, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		for key, ts := range entries {
			if err := bucket.Put([]byte(key), encodeTimestamp(ts)); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeTimestamp(ts float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(ts))
	return buf
}

func decodeTimestamp(buf []byte) float64 {
	if len(buf) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf))
}
