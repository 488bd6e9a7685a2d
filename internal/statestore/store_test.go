package statestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "state", "state.json")),
		"memory": NewMemoryStore(),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyDocumentID)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyDocumentID, "doc-1"))
			v, err := s.Get(ctx, KeyDocumentID)
			require.NoError(t, err)
			assert.Equal(t, "doc-1", v)

			require.NoError(t, s.Delete(ctx, KeyDocumentID))
			_, err = s.Get(ctx, KeyDocumentID)
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.Close())
		})
	}
}

func TestTake_IsOneShot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyInitialChatMessage, "hello"))

	v, err := Take(ctx, s, KeyInitialChatMessage)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = Take(ctx, s, KeyInitialChatMessage)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewFileStore(path).Set(ctx, KeyLearningPathID, "path-9"))

	v, err := NewFileStore(path).Get(ctx, KeyLearningPathID)
	require.NoError(t, err)
	assert.Equal(t, "path-9", v)

	var state stateFile
	require.NoError(t, ReadJSON(path, &state))
	assert.Equal(t, stateSchemaVersion, state.SchemaVersion)
	assert.NotEmpty(t, state.UpdatedAt)

	_, err = os.Stat(lockDirFor(path))
	assert.True(t, os.IsNotExist(err), "lock dir should be released")
}

func TestFileStore_CorruptFileSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, WriteBytes(path, []byte("{not json")))
	_, err := NewFileStore(path).Get(context.Background(), KeyDocumentID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestOpen_SelectsBackend(t *testing.T) {
	s, err := Open(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(Options{Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(Options{Backend: "redis"})
	assert.Error(t, err)
	_, err = Open(Options{Backend: "etcd"})
	assert.Error(t, err)

	s, err = Open(Options{Backend: "redis", RedisAddr: "127.0.0.1:6390"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())
}
