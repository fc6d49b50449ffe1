package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/tjirsch/gcloud-switch/internal/merge"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
)

// profileDoc is the YAML form of one side of a conflict.
type profileDoc struct {
	UserAccount     string     `yaml:"user_account"`
	UserProject     string     `yaml:"user_project"`
	ADCAccount      string     `yaml:"adc_account"`
	ADCQuotaProject string     `yaml:"adc_quota_project"`
	UpdatedAt       *time.Time `yaml:"updated_at,omitempty"`
}

func toDoc(p profile.Profile) profileDoc {
	return profileDoc{
		UserAccount:     p.UserAccount,
		UserProject:     p.UserProject,
		ADCAccount:      p.ADCAccount,
		ADCQuotaProject: p.ADCQuotaProject,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d profileDoc) profile() profile.Profile {
	p := profile.New(d.UserAccount, d.UserProject, d.ADCAccount, d.ADCQuotaProject)
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		p.UpdatedAt = &t
	}
	return p
}

// PendingConflict describes a single unresolved profile conflict.
type PendingConflict struct {
	Name   string     `yaml:"name"`
	Local  profileDoc `yaml:"local"`
	Remote profileDoc `yaml:"remote"`
}

// PendingConflictFile holds the conflicts left by one pull.
type PendingConflictFile struct {
	Timestamp string `yaml:"timestamp"`
	// Revision is the remote revision the conflicts were found against.
	Revision  string            `yaml:"revision"`
	Conflicts []PendingConflict `yaml:"conflicts"`
}

// MergeConflicts converts the file's entries back to merge conflicts.
func (f PendingConflictFile) MergeConflicts() []merge.Conflict {
	out := make([]merge.Conflict, 0, len(f.Conflicts))
	for _, c := range f.Conflicts {
		out = append(out, merge.Conflict{Name: c.Name, Local: c.Local.profile(), Remote: c.Remote.profile()})
	}
	return out
}

const conflictsFile = "pending.yaml"

// SaveConflicts replaces the pending conflicts in dir. Saving none removes
// the file.
func SaveConflicts(dir, revision string, conflicts []merge.Conflict, now time.Time) error {
	if len(conflicts) == 0 {
		return DiscardConflicts(dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	file := PendingConflictFile{
		Timestamp: now.UTC().Format(time.RFC3339),
		Revision:  revision,
	}
	for _, c := range conflicts {
		file.Conflicts = append(file.Conflicts, PendingConflict{Name: c.Name, Local: toDoc(c.Local), Remote: toDoc(c.Remote)})
	}
	sort.Slice(file.Conflicts, func(i, j int) bool { return file.Conflicts[i].Name < file.Conflicts[j].Name })
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling conflicts: %w", err)
	}
	return store.WriteFileAtomic(filepath.Join(dir, conflictsFile), data, 0o600)
}

// HasPendingConflicts checks if there are unresolved conflicts.
func HasPendingConflicts(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, conflictsFile))
	return err == nil
}

// LoadConflicts reads the pending conflicts. No file yields an empty result.
func LoadConflicts(dir string) (PendingConflictFile, error) {
	var f PendingConflictFile
	data, err := os.ReadFile(filepath.Join(dir, conflictsFile))
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing pending conflicts: %w: %w", profile.ErrInvalid, err)
	}
	return f, nil
}

// DiscardConflicts removes the pending conflicts.
func DiscardConflicts(dir string) error {
	err := os.Remove(filepath.Join(dir, conflictsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
