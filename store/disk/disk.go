// Package disk provides a disk-backed bounded store.
package disk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/imagecache/store"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
)

// Store implements store.Store using the local filesystem.
//
// Payloads are stored one file per key, sharded into subdirectories by
// key prefix. Capacity is enforced two ways: an optional entry cap set
// with WithMaxEntries, and the filesystem itself — a full disk surfaces
// as store.ErrCapacityExceeded.
type Store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	maxEntries     int

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Option configures a disk store.
type Option func(*Store)

// WithShardPrefixLen sets the number of key characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for store directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithMaxEntries caps the number of stored payloads. Insert reports
// store.ErrCapacityExceeded once the cap is reached. Use 0 (the default)
// to rely on filesystem capacity alone.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.maxEntries = n
	}
}

// New creates a disk store rooted at dir. When compress is true, payloads
// are stored zstd-compressed.
func New(dir string, compress bool, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		s.enc = enc
		s.dec = dec
	}
	return s, nil
}

// Exists reports whether a payload is stored under key.
func (s *Store) Exists(key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert stores payload under key. The payload is written to a temporary
// file and renamed into place, so readers never observe partial content.
// A full filesystem or a reached entry cap reports store.ErrCapacityExceeded.
func (s *Store) Insert(key string, payload []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if s.maxEntries > 0 {
		n, err := s.Count()
		if err != nil {
			return err
		}
		if n >= s.maxEntries {
			return store.ErrCapacityExceeded
		}
	}

	if s.enc != nil {
		payload = s.enc.EncodeAll(payload, nil)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return translate(err)
	}

	tmp, err := os.CreateTemp(dir, "store-*")
	if err != nil {
		return translate(err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return translate(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return translate(err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(tmpPath)
			return nil
		}
		_ = os.Remove(tmpPath)
		return translate(err)
	}
	return nil
}

// Remove deletes the payload stored under key, if any.
func (s *Store) Remove(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll deletes every stored payload.
func (s *Store) RemoveAll() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, s.dirPerm)
}

// Count returns the number of stored payloads.
func (s *Store) Count() (int, error) {
	n := 0
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Get returns the payload stored under key, decompressing if needed.
// Get is not part of the store contract; it exists for read-side callers
// that resolve keys back to payloads.
func (s *Store) Get(key string) ([]byte, bool) {
	path, err := s.path(key)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the key, not user input
	if err != nil {
		return nil, false
	}
	if s.dec != nil {
		data, err = s.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, false
		}
	}
	return data, true
}

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}
	if s.shardPrefixLen <= 0 {
		return filepath.Join(s.dir, key), nil
	}
	prefixLen := s.shardPrefixLen
	if prefixLen > len(key) {
		prefixLen = len(key)
	}
	return filepath.Join(s.dir, key[:prefixLen], key), nil
}

// translate maps a full filesystem onto the store capacity signal.
func translate(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return store.ErrCapacityExceeded
	}
	return err
}
