package minio

import (
	"errors"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/imagecache/store"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err, "bucket is required")

	_, err = New(Config{Bucket: "cache"})
	require.Error(t, err, "endpoint is required without a client")
}

func TestNewPrefixNormalized(t *testing.T) {
	t.Parallel()

	client, err := miniogo.New("localhost:9000", &miniogo.Options{})
	require.NoError(t, err)

	s, err := New(Config{Bucket: "cache", Prefix: "images", Client: client})
	require.NoError(t, err)
	assert.Equal(t, "images/", s.prefix)

	s, err = New(Config{Bucket: "cache", Prefix: "images/", Client: client})
	require.NoError(t, err)
	assert.Equal(t, "images/", s.prefix)
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, translate(nil))

	err := translate(miniogo.ErrorResponse{Code: "XMinioAdminBucketQuotaExceeded"})
	assert.True(t, errors.Is(err, store.ErrCapacityExceeded))

	err = translate(miniogo.ErrorResponse{Code: "EntityTooLarge"})
	assert.True(t, errors.Is(err, store.ErrCapacityExceeded))

	err = translate(miniogo.ErrorResponse{Code: "AccessDenied"})
	assert.False(t, errors.Is(err, store.ErrCapacityExceeded))
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, isNotFound(miniogo.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(miniogo.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, isNotFound(miniogo.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("plain error")))
}
