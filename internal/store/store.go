package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// LoadReport lists what a load had to skip.
type LoadReport struct {
	Skipped []Skipped
}

// Store reads and writes profiles.toml and state.toml.
type Store struct {
	ProfilesPath string
	StatePath    string
}

// New returns a store over the given file paths.
func New(profilesPath, statePath string) *Store {
	return &Store{ProfilesPath: profilesPath, StatePath: statePath}
}

// LoadProfiles reads the profile collection. A missing file is an empty set.
func (s *Store) LoadProfiles() (*profile.Set, LoadReport, error) {
	data, err := os.ReadFile(s.ProfilesPath)
	if errors.Is(err, os.ErrNotExist) {
		return profile.NewSet(), LoadReport{}, nil
	}
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("reading %s: %w", s.ProfilesPath, err)
	}
	set, skipped, err := ParseProfiles(data)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("%s: %w", s.ProfilesPath, err)
	}
	return set, LoadReport{Skipped: skipped}, nil
}

// SaveProfiles atomically replaces the profile collection.
func (s *Store) SaveProfiles(set *profile.Set) error {
	data, err := MarshalProfiles(set)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.ProfilesPath, data, 0o600)
}

type stateDoc struct {
	ActiveProfile string `toml:"active_profile,omitempty"`
	ColumnScope   string `toml:"column_scope,omitempty"`
	SyncMode      string `toml:"sync_mode,omitempty"`
	SyncRevision  string `toml:"sync_revision,omitempty"`
}

// LoadState reads the session state. A missing file yields defaults.
// Unparseable enum values fall back to their defaults and are reported as an
// ErrInvalid error alongside the usable state.
func (s *Store) LoadState() (profile.State, error) {
	var st profile.State
	data, err := os.ReadFile(s.StatePath)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("reading %s: %w", s.StatePath, err)
	}
	var doc stateDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return st, fmt.Errorf("parsing %s: %w: %w", s.StatePath, profile.ErrInvalid, err)
	}
	st.ActiveProfile = doc.ActiveProfile
	st.SyncRevision = doc.SyncRevision

	var errs []error
	if st.Column, err = profile.ParseScope(doc.ColumnScope); err != nil {
		errs = append(errs, err)
	}
	if st.SyncMode, err = profile.ParseSyncMode(doc.SyncMode); err != nil {
		errs = append(errs, err)
	}
	return st, errors.Join(errs...)
}

// SaveState atomically replaces the session state.
func (s *Store) SaveState(st profile.State) error {
	data, err := toml.Marshal(stateDoc{
		ActiveProfile: st.ActiveProfile,
		ColumnScope:   st.Column.String(),
		SyncMode:      st.SyncMode.String(),
		SyncRevision:  st.SyncRevision,
	})
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	return WriteFileAtomic(s.StatePath, data, 0o600)
}
