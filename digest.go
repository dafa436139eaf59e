package imagecache

import "github.com/opencontainers/go-digest"

// Key returns the cache key for payload: the hex-encoded SHA-256 digest
// of its content. Byte-identical payloads always map to the same key,
// which is what makes deduplication and content addressing work.
func Key(payload []byte) string {
	return digest.Canonical.FromBytes(payload).Encoded()
}
