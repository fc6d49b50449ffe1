package paths

import (
	"os"
	"path/filepath"
)

// EnvConfigDir overrides the gcloud-switch config directory.
const EnvConfigDir = "GCLOUD_SWITCH_CONFIG_DIR"

// EnvGcloudConfig is gcloud's own override for its config directory.
const EnvGcloudConfig = "CLOUDSDK_CONFIG"

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

// ConfigDir returns the gcloud-switch directory, usually ~/.config/gcloud-switch.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gcloud-switch")
	}
	return filepath.Join(home(), ".config", "gcloud-switch")
}

// ProfilesFile returns <config>/profiles.toml.
func ProfilesFile() string {
	return filepath.Join(ConfigDir(), "profiles.toml")
}

// StateFile returns <config>/state.toml.
func StateFile() string {
	return filepath.Join(ConfigDir(), "state.toml")
}

// SettingsFile returns <config>/config.toml.
func SettingsFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ADCDir returns <config>/adc, holding one stored ADC blob per profile.
func ADCDir() string {
	return filepath.Join(ConfigDir(), "adc")
}

// SyncRepoDir returns <config>/sync-repo, the local clone of the sync remote.
func SyncRepoDir() string {
	return filepath.Join(ConfigDir(), "sync-repo")
}

// LogFile returns <config>/gcloud-switch.log.
func LogFile() string {
	return filepath.Join(ConfigDir(), "gcloud-switch.log")
}

// GcloudDir returns gcloud's config directory. gcloud uses ~/.config/gcloud on
// every platform unless CLOUDSDK_CONFIG is set.
func GcloudDir() string {
	if dir := os.Getenv(EnvGcloudConfig); dir != "" {
		return dir
	}
	return filepath.Join(home(), ".config", "gcloud")
}

// CredentialsDB returns gcloud's credentials.db.
func CredentialsDB() string {
	return filepath.Join(GcloudDir(), "credentials.db")
}

// ADCFile returns the well-known application_default_credentials.json.
func ADCFile() string {
	return filepath.Join(GcloudDir(), "application_default_credentials.json")
}

// ConflictsDir returns <config>/conflicts, holding sync conflicts awaiting a decision.
func ConflictsDir() string {
	return filepath.Join(ConfigDir(), "conflicts")
}
