package adcstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	blob := []byte(`{"type":"authorized_user","refresh_token":"r"}`)

	assert.False(t, s.Has("work"))
	_, err := s.Load("work")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Save("work", blob))
	assert.True(t, s.Has("work"))
	got, err := s.Load("work")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	require.NoError(t, s.Delete("work"))
	assert.False(t, s.Has("work"))
	require.NoError(t, s.Delete("work"), "deleting twice is fine")
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "adc")
	exerciseStore(t, NewFileStore(dir))
}

func TestFileStore_Permissions(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save("work", []byte("{}")))
	info, err := os.Stat(filepath.Join(dir, "work.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_RejectsPathNames(t *testing.T) {
	s := NewFileStore(t.TempDir())
	assert.Error(t, s.Save("../escape", []byte("{}")))
	assert.Error(t, s.Save("", []byte("{}")))
	assert.False(t, s.Has("a/b"))
}

func TestKeyringStore(t *testing.T) {
	gokeyring.MockInit()
	exerciseStore(t, NewKeyringStore(KeyringService))
}

func TestOpen(t *testing.T) {
	s, err := Open("", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open("keyring", "")
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, s)

	_, err = Open("vault", "")
	assert.Error(t, err)
}
