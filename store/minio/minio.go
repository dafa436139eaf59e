// Package minio provides a bounded store backed by a MinIO or S3-compatible
// bucket.
//
// Bucket quotas are enforced server-side; the store surfaces quota refusals
// as store.ErrCapacityExceeded so the cache coordinator can evict and retry.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config configures a MinIO-backed store.
type Config struct {
	// Endpoint is the host:port of the MinIO/S3 endpoint.
	// Ignored when Client is provided.
	Endpoint string

	// AccessKey and SecretKey authenticate against the endpoint.
	// Ignored when Client is provided.
	AccessKey string
	SecretKey string

	// UseSSL enables TLS for the connection.
	UseSSL bool

	// Bucket is the bucket holding the payloads. Required.
	Bucket string

	// Prefix is an optional key prefix applied to all objects,
	// allowing several caches to share one bucket.
	Prefix string

	// Client overrides the constructed client; useful for tests and
	// callers with custom transport requirements.
	Client *minio.Client
}

// Store implements store.Store on a MinIO/S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a MinIO-backed store.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	client := cfg.Client
	if client == nil {
		if cfg.Endpoint == "" {
			return nil, errors.New("endpoint is required")
		}
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
	}

	prefix := cfg.Prefix
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// Exists reports whether a payload is stored under key.
func (s *Store) Exists(key string) (bool, error) {
	_, err := s.client.StatObject(context.Background(), s.bucket, s.prefix+key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, translate(err)
	}
	return true, nil
}

// Insert stores payload under key.
func (s *Store) Insert(key string, payload []byte) error {
	_, err := s.client.PutObject(
		context.Background(),
		s.bucket,
		s.prefix+key,
		bytes.NewReader(payload),
		int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	return translate(err)
}

// Remove deletes the payload stored under key. Removing an absent key
// succeeds; object removal is idempotent on the server side.
func (s *Store) Remove(key string) error {
	err := s.client.RemoveObject(context.Background(), s.bucket, s.prefix+key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return translate(err)
	}
	return nil
}

// RemoveAll deletes every payload under the store's prefix.
func (s *Store) RemoveAll() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return translate(obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return translate(err)
		}
	}
	return nil
}

// Count returns the number of payloads under the store's prefix.
func (s *Store) Count() (int, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return 0, translate(obj.Err)
		}
		n++
	}
	return n, nil
}

// Get returns the payload stored under key.
// Get is not part of the store contract; it exists for read-side callers
// that resolve keys back to payloads.
func (s *Store) Get(key string) ([]byte, error) {
	obj, err := s.client.GetObject(context.Background(), s.bucket, s.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, translate(err)
	}
	return buf.Bytes(), nil
}
