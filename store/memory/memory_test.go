package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/imagecache/store"
)

func TestInsertAndExists(t *testing.T) {
	t.Parallel()

	s := New(0)

	exists, err := s.Exists("k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Insert("k", []byte("payload")))

	exists, err = s.Exists("k")
	require.NoError(t, err)
	assert.True(t, exists)

	got, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), got)
}

func TestInsertCapacity(t *testing.T) {
	t.Parallel()

	s := New(2)
	require.NoError(t, s.Insert("a", []byte("1")))
	require.NoError(t, s.Insert("b", []byte("2")))

	err := s.Insert("c", []byte("3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrCapacityExceeded))

	// Overwriting a present key consumes no capacity.
	require.NoError(t, s.Insert("a", []byte("1+")))

	// Freeing a slot lets the refused insert through.
	require.NoError(t, s.Remove("b"))
	require.NoError(t, s.Insert("c", []byte("3")))
}

func TestInsertCopiesPayload(t *testing.T) {
	t.Parallel()

	s := New(0)
	payload := []byte("mutable")
	require.NoError(t, s.Insert("k", payload))
	payload[0] = 'X'

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("mutable"), got)
}

func TestRemoveIdempotent(t *testing.T) {
	t.Parallel()

	s := New(0)
	require.NoError(t, s.Insert("k", []byte("payload")))
	require.NoError(t, s.Remove("k"))
	require.NoError(t, s.Remove("k"))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemoveAll(t *testing.T) {
	t.Parallel()

	s := New(0)
	require.NoError(t, s.Insert("a", []byte("1")))
	require.NoError(t, s.Insert("b", []byte("2")))
	require.NoError(t, s.RemoveAll())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.Keys())
}
