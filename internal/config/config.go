// Package config reads and writes config.toml, the user settings that are
// not part of the synced profiles or the per-device session state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// EnvPrefix prefixes environment overrides, e.g. GCLOUD_SWITCH_SYNC_BRANCH.
const EnvPrefix = "GCLOUD_SWITCH"

// Keys understood by Set.
const (
	KeySyncRemoteURL      = "sync.remote_url"
	KeySyncBranch         = "sync.branch"
	KeyCheckTimeout       = "check.timeout"
	KeyCredentialsBackend = "credentials.backend"
	KeyLogLevel           = "log.level"
	KeyUpdateFrequency    = "update.frequency"
	KeyUpdateLastCheck    = "update.last_check"
)

// Update check frequencies.
const (
	UpdateNever  = "never"
	UpdateAlways = "always"
	UpdateDaily  = "daily"
)

// Settings is the decoded config.toml.
type Settings struct {
	Sync        SyncSettings        `mapstructure:"sync"`
	Check       CheckSettings       `mapstructure:"check"`
	Credentials CredentialsSettings `mapstructure:"credentials"`
	Log         LogSettings         `mapstructure:"log"`
	Update      UpdateSettings      `mapstructure:"update"`
}

type SyncSettings struct {
	RemoteURL string `mapstructure:"remote_url"`
	Branch    string `mapstructure:"branch"`
}

type CheckSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type CredentialsSettings struct {
	// Backend is "file" or "keyring".
	Backend string `mapstructure:"backend"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

type UpdateSettings struct {
	Frequency string `mapstructure:"frequency"`
	// LastCheck is RFC 3339, empty when no check has run.
	LastCheck string `mapstructure:"last_check"`
}

// Defaults returns the settings used for keys absent from the file.
func Defaults() Settings {
	return Settings{
		Sync:        SyncSettings{Branch: "main"},
		Check:       CheckSettings{Timeout: 20 * time.Second},
		Credentials: CredentialsSettings{Backend: "file"},
		Log:         LogSettings{Level: "info"},
		Update:      UpdateSettings{Frequency: UpdateDaily},
	}
}

// Config is a loaded settings file that can be changed and saved back.
type Config struct {
	Settings
	path string
	v    *viper.Viper
}

// Load reads path. A missing file yields the defaults; environment
// variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeySyncRemoteURL, d.Sync.RemoteURL)
	v.SetDefault(KeySyncBranch, d.Sync.Branch)
	v.SetDefault(KeyCheckTimeout, d.Check.Timeout)
	v.SetDefault(KeyCredentialsBackend, d.Credentials.Backend)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyUpdateFrequency, d.Update.Frequency)
	v.SetDefault(KeyUpdateLastCheck, d.Update.LastCheck)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w: %w", path, profile.ErrInvalid, err)
		}
	}

	c := &Config{path: path, v: v}
	if err := c.decode(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode() error {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return fmt.Errorf("decoding %s: %w: %w", c.path, profile.ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}
	c.Settings = s
	return nil
}

// Validate checks the enumerated settings.
func (s Settings) Validate() error {
	var errs []error
	switch s.Credentials.Backend {
	case "file", "keyring":
	default:
		errs = append(errs, fmt.Errorf("%w: %s %q (want file or keyring)", profile.ErrInvalid, KeyCredentialsBackend, s.Credentials.Backend))
	}
	switch s.Update.Frequency {
	case UpdateNever, UpdateAlways, UpdateDaily:
	default:
		errs = append(errs, fmt.Errorf("%w: %s %q (want never, always or daily)", profile.ErrInvalid, KeyUpdateFrequency, s.Update.Frequency))
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s %q", profile.ErrInvalid, KeyLogLevel, s.Log.Level))
	}
	if s.Check.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", profile.ErrInvalid, KeyCheckTimeout))
	}
	return errors.Join(errs...)
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Set changes key and re-decodes the settings. The previous value is kept
// when the new one does not validate.
func (c *Config) Set(key string, value any) error {
	old := c.v.Get(key)
	c.v.Set(key, value)
	if err := c.decode(); err != nil {
		c.v.Set(key, old)
		return err
	}
	return nil
}

// Save writes the settings back to the file.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	return nil
}
