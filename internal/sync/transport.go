package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/git"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/store"
)

// ProfilesPath is the file holding the profiles inside the sync repository.
const ProfilesPath = "profiles.toml"

const remoteName = "origin"

// Snapshot is the remote copy of the profiles at a revision. An empty
// Revision means the remote holds nothing yet.
type Snapshot struct {
	Set      *profile.Set
	Revision string
}

// Transport moves profile snapshots to and from the remote.
type Transport interface {
	Fetch(ctx context.Context) (Snapshot, error)
	// Publish writes set on top of base and returns the new revision.
	// It fails with ErrPullRequired when the remote is no longer at base.
	Publish(ctx context.Context, set *profile.Set, base, message string) (string, error)
}

// GitTransport keeps a local clone of a git remote holding profiles.toml.
type GitTransport struct {
	Dir       string
	RemoteURL string
	Branch    string
}

// NewGitTransport returns a transport for url. It fails with
// ErrNotConfigured when url is empty.
func NewGitTransport(dir, url, branch string) (*GitTransport, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}
	if branch == "" {
		branch = "main"
	}
	return &GitTransport{Dir: dir, RemoteURL: url, Branch: branch}, nil
}

func (g *GitTransport) remoteRef() string {
	return remoteName + "/" + g.Branch
}

// Ensure creates the local repository and points its remote at RemoteURL.
func (g *GitTransport) Ensure() error {
	if !git.IsRepo(g.Dir) {
		if err := os.MkdirAll(g.Dir, 0o755); err != nil {
			return err
		}
		if err := git.Init(g.Dir, g.Branch); err != nil {
			return err
		}
	}
	if !git.HasRemote(g.Dir, remoteName) {
		return git.RemoteAdd(g.Dir, remoteName, g.RemoteURL)
	}
	if url, _ := git.RemoteURL(g.Dir, remoteName); url != g.RemoteURL {
		return git.RemoteSetURL(g.Dir, remoteName, g.RemoteURL)
	}
	return nil
}

// Fetch implements Transport.
func (g *GitTransport) Fetch(ctx context.Context) (Snapshot, error) {
	if err := g.Ensure(); err != nil {
		return Snapshot{}, err
	}
	found, err := git.Fetch(ctx, g.Dir, remoteName, g.Branch)
	if err != nil {
		return Snapshot{}, err
	}
	if !found {
		return Snapshot{Set: profile.NewSet()}, nil
	}
	rev, err := git.RevParse(g.Dir, g.remoteRef())
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolving %s: %w", g.remoteRef(), err)
	}
	if !git.HasPath(g.Dir, rev, ProfilesPath) {
		return Snapshot{Set: profile.NewSet(), Revision: rev}, nil
	}
	data, err := git.Show(g.Dir, rev, ProfilesPath)
	if err != nil {
		return Snapshot{}, err
	}
	set, skipped, err := store.ParseProfiles(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("remote %s at %s: %w", ProfilesPath, shortRev(rev), err)
	}
	for _, s := range skipped {
		log.Warn("skipping remote profile", "name", s.Name, "reason", s.Reason)
	}
	return Snapshot{Set: set, Revision: rev}, nil
}

// Publish implements Transport.
func (g *GitTransport) Publish(ctx context.Context, set *profile.Set, base, message string) (string, error) {
	if err := g.Ensure(); err != nil {
		return "", err
	}
	if _, err := git.Fetch(ctx, g.Dir, remoteName, g.Branch); err != nil {
		return "", err
	}
	current, _ := git.RevParse(g.Dir, g.remoteRef())
	if current != base {
		return "", ErrPullRequired
	}
	if base != "" {
		if err := git.Checkout(g.Dir, g.Branch, base); err != nil {
			return "", err
		}
	}

	data, err := store.MarshalProfiles(set)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(g.Dir, ProfilesPath), data, 0o644); err != nil {
		return "", err
	}
	if err := git.Add(g.Dir, ProfilesPath); err != nil {
		return "", err
	}
	clean, err := git.IsClean(g.Dir)
	if err != nil {
		return "", err
	}
	if clean && base != "" {
		return base, nil
	}
	if !clean {
		if err := git.Commit(g.Dir, message); err != nil {
			return "", err
		}
	}

	err = git.Push(ctx, g.Dir, remoteName, g.Branch)
	var nff *git.NonFastForwardError
	if errors.As(err, &nff) {
		return "", ErrPullRequired
	}
	if err != nil {
		return "", err
	}
	return git.RevParse(g.Dir, "HEAD")
}

func shortRev(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
