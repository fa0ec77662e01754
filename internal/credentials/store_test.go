package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	want := Record{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
		ExpiresAt:    1724400000000,
	}
	require.NoError(t, store.Save(context.Background(), want))

	got, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	// Corrupt content is treated like an absent record, not an error.
	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), Record{AccessToken: "old", RefreshToken: "old-r", ExpiresAt: 1}))
	require.NoError(t, store.Save(context.Background(), Record{AccessToken: "new", RefreshToken: "new-r", ExpiresAt: 2}))

	got, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "new-r", got.RefreshToken)
	assert.Equal(t, int64(2), got.ExpiresAt)
}

func TestFileStoreSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), Record{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "credentials.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), Record{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewFileStoreEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
