// Package store defines the contract for capacity-bounded payload stores.
//
// A Store holds binary payloads under content-derived keys. Its capacity is
// enforced by the implementation but never communicated: the only capacity
// signal callers receive is ErrCapacityExceeded from Insert. The cache
// coordinator reacts to that signal by evicting and retrying.
package store

import "errors"

// ErrCapacityExceeded is returned by Insert when the store refused the
// payload because it is full. It is the store's only capacity signal.
var ErrCapacityExceeded = errors.New("store: capacity exceeded")

// Store is a keyed store of binary payloads with unknown, enforced capacity.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Exists reports whether a payload is stored under key.
	Exists(key string) (bool, error)

	// Insert stores payload under key. It returns ErrCapacityExceeded
	// (possibly wrapped) when the store is full. Inserting an existing
	// key overwrites the payload without consuming additional capacity.
	Insert(key string, payload []byte) error

	// Remove deletes the payload stored under key.
	// Removing an absent key is not an error.
	Remove(key string) error

	// RemoveAll deletes every stored payload.
	RemoveAll() error

	// Count returns the number of stored payloads.
	Count() (int, error)
}
