package paths_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tjirsch/gcloud-switch/internal/paths"
)

func TestConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, dir)
	assert.Equal(t, dir, paths.ConfigDir())
	assert.Equal(t, filepath.Join(dir, "profiles.toml"), paths.ProfilesFile())
	assert.Equal(t, filepath.Join(dir, "state.toml"), paths.StateFile())
	assert.Equal(t, filepath.Join(dir, "adc"), paths.ADCDir())
	assert.Equal(t, filepath.Join(dir, "sync-repo"), paths.SyncRepoDir())
	assert.Equal(t, filepath.Join(dir, "conflicts"), paths.ConflictsDir())
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv(paths.EnvConfigDir, "")
	assert.True(t, strings.HasSuffix(paths.ConfigDir(), "gcloud-switch"))
	assert.True(t, strings.HasSuffix(paths.SettingsFile(), "config.toml"))
	assert.True(t, strings.HasSuffix(paths.LogFile(), "gcloud-switch.log"))
}

func TestGcloudDir(t *testing.T) {
	t.Run("override", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(paths.EnvGcloudConfig, dir)
		assert.Equal(t, dir, paths.GcloudDir())
		assert.Equal(t, filepath.Join(dir, "credentials.db"), paths.CredentialsDB())
		assert.Equal(t, filepath.Join(dir, "application_default_credentials.json"), paths.ADCFile())
	})
	t.Run("default", func(t *testing.T) {
		t.Setenv(paths.EnvGcloudConfig, "")
		assert.True(t, strings.HasSuffix(paths.GcloudDir(), filepath.Join(".config", "gcloud")))
	})
}
