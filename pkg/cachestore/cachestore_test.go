package cachestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Value int
}

func TestPutThenGetRoundTrips(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("/repo", "log", "window=30", sample{Value: 42}))

	var out sample
	found, err := store.Get("/repo", "log", "window=30", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, out.Value)
}

func TestGetMissReturnsFalse(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var out sample
	found, err := store.Get("/repo", "log", "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("/repo", "blame", "k", sample{Value: 1}))
	require.NoError(t, store.Put("/repo", "blame", "k", sample{Value: 2}))

	var out sample
	found, err := store.Get("/repo", "blame", "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, out.Value)
}
