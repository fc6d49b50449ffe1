package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjirsch/gcloud-switch/internal/config"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
		require.NoError(t, err)
		assert.Equal(t, config.Defaults(), cfg.Settings)
	})

	t.Run("file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[sync]
remote_url = "git@example.com:me/profiles.git"
branch = "profiles"

[check]
timeout = "5s"

[credentials]
backend = "keyring"

[update]
frequency = "never"
`), 0o600))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "git@example.com:me/profiles.git", cfg.Sync.RemoteURL)
		assert.Equal(t, "profiles", cfg.Sync.Branch)
		assert.Equal(t, 5*time.Second, cfg.Check.Timeout)
		assert.Equal(t, "keyring", cfg.Credentials.Backend)
		assert.Equal(t, config.UpdateNever, cfg.Update.Frequency)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("GCLOUD_SWITCH_SYNC_BRANCH", "from-env")
		t.Setenv("GCLOUD_SWITCH_LOG_LEVEL", "debug")
		cfg, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Sync.Branch)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[credentials]\nbackend = \"vault\"\n"), 0o600))
		_, err := config.Load(path)
		assert.ErrorIs(t, err, profile.ErrInvalid)
	})

	t.Run("malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[sync\n"), 0o600))
		_, err := config.Load(path)
		assert.ErrorIs(t, err, profile.ErrInvalid)
	})
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.Set(config.KeySyncRemoteURL, "https://example.com/p.git"))
	assert.Equal(t, "https://example.com/p.git", cfg.Sync.RemoteURL)

	err = cfg.Set(config.KeyUpdateFrequency, "hourly")
	assert.ErrorIs(t, err, profile.ErrInvalid)
	assert.Equal(t, config.UpdateDaily, cfg.Update.Frequency)

	require.NoError(t, cfg.Save())
	assert.Equal(t, path, cfg.Path())

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/p.git", reloaded.Sync.RemoteURL)
	assert.Equal(t, config.UpdateDaily, reloaded.Update.Frequency)
	assert.Equal(t, 20*time.Second, reloaded.Check.Timeout)
}

func TestValidate(t *testing.T) {
	s := config.Defaults()
	require.NoError(t, s.Validate())

	s.Log.Level = "loud"
	s.Check.Timeout = 0
	err := s.Validate()
	assert.ErrorIs(t, err, profile.ErrInvalid)
	assert.Contains(t, err.Error(), config.KeyLogLevel)
	assert.Contains(t, err.Error(), config.KeyCheckTimeout)
}
