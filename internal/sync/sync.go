// Package sync shares profiles between machines through a remote. Pull
// merges the remote copy into the local one; Push publishes the local copy
// and refuses to overwrite remote changes that have not been pulled.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/merge"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
)

var (
	// ErrPullRequired is returned by Push when the remote has advanced
	// since the last pull.
	ErrPullRequired = errors.New("remote has changes that are not pulled yet; run 'gcloud-switch sync pull' first")
	// ErrNotConfigured is returned when no sync remote is set.
	ErrNotConfigured = errors.New("sync not configured; run 'gcloud-switch sync init <remote_url>' first")
	// ErrConflictsPending is returned by Push while pulled conflicts are unresolved.
	ErrConflictsPending = errors.New("unresolved sync conflicts; run 'gcloud-switch sync conflicts resolve' first")
)

// Store is the local profile storage.
type Store interface {
	LoadProfiles() (*profile.Set, store.LoadReport, error)
	SaveProfiles(*profile.Set) error
	LoadState() (profile.State, error)
	SaveState(profile.State) error
}

// Resolver chooses sides for conflicts. Conflicts left out of the returned
// map stay pending.
type Resolver func([]merge.Conflict) (map[string]merge.Choice, error)

// Engine runs pull and push.
type Engine struct {
	Transport    Transport
	Store        Store
	ConflictsDir string
	Now          func() time.Time
}

// PullResult summarizes a pull.
type PullResult struct {
	Revision   string
	Inserted   []string
	Updated    []string
	Unresolved []merge.Conflict
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) loadState() (profile.State, error) {
	st, err := e.Store.LoadState()
	if errors.Is(err, profile.ErrInvalid) {
		log.Warn("state file has invalid values, using defaults", "err", err)
		return st, nil
	}
	return st, err
}

// Pull fetches the remote profiles and merges them into the local ones.
// Conflicts go to resolve when it is not nil; those still unresolved keep
// their local version and are saved as pending. The synced revision only
// advances when nothing is left pending.
func (e *Engine) Pull(ctx context.Context, resolve Resolver) (PullResult, error) {
	snap, err := e.Transport.Fetch(ctx)
	if err != nil {
		return PullResult{}, fmt.Errorf("fetching remote profiles: %w", err)
	}
	local, _, err := e.Store.LoadProfiles()
	if err != nil {
		return PullResult{}, err
	}
	st, err := e.loadState()
	if err != nil {
		return PullResult{}, err
	}

	res := merge.Profiles(local, snap.Set)
	var choices map[string]merge.Choice
	if len(res.Conflicts) > 0 && resolve != nil {
		if choices, err = resolve(res.Conflicts); err != nil {
			return PullResult{}, err
		}
	}
	final, unresolved := res.Resolve(local, choices)
	if len(unresolved) > 0 {
		final = merge.Result{Merged: final}.KeepLocalFor(local, unresolved)
	}

	out := PullResult{Revision: snap.Revision, Unresolved: unresolved}
	for _, name := range final.Names() {
		p, _ := final.Get(name)
		old, ok := local.Get(name)
		switch {
		case !ok:
			out.Inserted = append(out.Inserted, name)
		case !old.SameContent(p):
			out.Updated = append(out.Updated, name)
		}
	}

	if err := e.Store.SaveProfiles(final); err != nil {
		return out, fmt.Errorf("saving merged profiles: %w", err)
	}
	if err := SaveConflicts(e.ConflictsDir, snap.Revision, unresolved, e.now()); err != nil {
		return out, fmt.Errorf("saving pending conflicts: %w", err)
	}
	if len(unresolved) == 0 && st.SyncRevision != snap.Revision {
		st.SyncRevision = snap.Revision
		if err := e.Store.SaveState(st); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Push publishes the local profiles. It returns ErrPullRequired when the
// remote moved since the last pull and ErrConflictsPending while conflicts
// wait for a decision.
func (e *Engine) Push(ctx context.Context) (string, error) {
	if HasPendingConflicts(e.ConflictsDir) {
		return "", ErrConflictsPending
	}
	st, err := e.loadState()
	if err != nil {
		return "", err
	}
	snap, err := e.Transport.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching remote profiles: %w", err)
	}
	if snap.Revision != st.SyncRevision {
		return "", ErrPullRequired
	}
	local, _, err := e.Store.LoadProfiles()
	if err != nil {
		return "", err
	}

	host, _ := os.Hostname()
	rev, err := e.Transport.Publish(ctx, local, st.SyncRevision, fmt.Sprintf("Update profiles from %s", host))
	if err != nil {
		return "", err
	}
	if rev != st.SyncRevision {
		st.SyncRevision = rev
		if err := e.Store.SaveState(st); err != nil {
			return rev, err
		}
	}
	return rev, nil
}

// ResolvePending applies choices to the pending conflicts. When none remain
// the synced revision advances to the one the conflicts were found against.
// It returns the number of conflicts still pending.
func (e *Engine) ResolvePending(choices map[string]merge.Choice) (int, error) {
	file, err := LoadConflicts(e.ConflictsDir)
	if err != nil {
		return 0, err
	}
	if len(file.Conflicts) == 0 {
		return 0, nil
	}
	local, _, err := e.Store.LoadProfiles()
	if err != nil {
		return 0, err
	}

	var remaining []merge.Conflict
	for _, c := range file.MergeConflicts() {
		choice, ok := choices[c.Name]
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		if choice == merge.KeepRemote {
			local.Put(c.Name, c.Remote)
		} else if !local.Has(c.Name) {
			local.Put(c.Name, c.Local)
		}
	}
	if err := e.Store.SaveProfiles(local); err != nil {
		return len(remaining), err
	}
	if err := SaveConflicts(e.ConflictsDir, file.Revision, remaining, e.now()); err != nil {
		return len(remaining), err
	}
	if len(remaining) > 0 {
		return len(remaining), nil
	}

	st, err := e.loadState()
	if err != nil {
		return 0, err
	}
	st.SyncRevision = file.Revision
	return 0, e.Store.SaveState(st)
}
