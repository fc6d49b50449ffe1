package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Run executes a git command in the given directory and returns trimmed output.
func Run(dir string, args ...string) (string, error) {
	return RunContext(context.Background(), dir, args...)
}

// RunContext is Run bound to ctx.
func RunContext(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// IsRepo returns true if dir is a git repository.
func IsRepo(dir string) bool {
	_, err := Run(dir, "rev-parse", "--git-dir")
	return err == nil
}

// IsClean returns true if the working tree has no uncommitted changes.
func IsClean(dir string) (bool, error) {
	out, err := Run(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// RevParse returns the resolved SHA for a ref.
func RevParse(dir, ref string) (string, error) {
	return Run(dir, "rev-parse", "--verify", "--quiet", ref)
}

// Init initializes a new git repo in dir on branch with local user config
// so commits work regardless of global git configuration.
func Init(dir, branch string) error {
	if out, err := Run(dir, "init", "-b", branch); err != nil {
		return fmt.Errorf("git init: %s", out)
	}
	if _, err := Run(dir, "config", "user.name", "gcloud-switch"); err != nil {
		return err
	}
	_, err := Run(dir, "config", "user.email", "gcloud-switch@localhost")
	return err
}

// Add stages files.
func Add(dir string, paths ...string) error {
	args := append([]string{"add"}, paths...)
	_, err := Run(dir, args...)
	return err
}

// Commit creates a commit with the given message.
func Commit(dir, message string) error {
	out, err := Run(dir, "commit", "-m", message)
	if err != nil {
		return fmt.Errorf("git commit: %s", out)
	}
	return nil
}

// Checkout points branch at start and checks it out, discarding local
// worktree changes to tracked files.
func Checkout(dir, branch, start string) error {
	out, err := Run(dir, "checkout", "-f", "-B", branch, start)
	if err != nil {
		return fmt.Errorf("git checkout: %s", out)
	}
	return nil
}

// NonFastForwardError is returned when a push is rejected because the remote
// has commits not in the local repo.
type NonFastForwardError struct {
	Output string
}

func (e *NonFastForwardError) Error() string {
	return e.Output
}

// Push pushes branch to remote. Returns NonFastForwardError if rejected due
// to diverged history.
func Push(ctx context.Context, dir, remote, branch string) error {
	out, err := RunContext(ctx, dir, "push", remote, "HEAD:refs/heads/"+branch)
	if err != nil {
		if isNonFastForward(out) {
			return &NonFastForwardError{Output: out}
		}
		return fmt.Errorf("git push: %s", out)
	}
	return nil
}

// isNonFastForward detects push rejections due to diverged histories.
func isNonFastForward(output string) bool {
	return strings.Contains(output, "non-fast-forward") ||
		strings.Contains(output, "fetch first")
}

// Fetch fetches branch from remote. It reports false when the remote does not
// have the branch yet.
func Fetch(ctx context.Context, dir, remote, branch string) (bool, error) {
	out, err := RunContext(ctx, dir, "fetch", "--quiet", remote,
		fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch))
	if err != nil {
		if strings.Contains(out, "couldn't find remote ref") {
			return false, nil
		}
		return false, fmt.Errorf("git fetch: %s", out)
	}
	return true, nil
}

// Show returns the content of path at ref.
func Show(dir, ref, path string) ([]byte, error) {
	cmd := exec.Command("git", "show", ref+":"+path)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", ref, path, err)
	}
	return out, nil
}

// HasPath reports whether path exists in the tree at ref.
func HasPath(dir, ref, path string) bool {
	_, err := Run(dir, "cat-file", "-e", ref+":"+path)
	return err == nil
}

// RemoteAdd adds a remote.
func RemoteAdd(dir, name, url string) error {
	_, err := Run(dir, "remote", "add", name, url)
	return err
}

// RemoteURL returns the URL of the named remote.
func RemoteURL(dir, name string) (string, error) {
	return Run(dir, "remote", "get-url", name)
}

// RemoteSetURL changes the URL of an existing remote.
func RemoteSetURL(dir, name, url string) error {
	_, err := Run(dir, "remote", "set-url", name, url)
	return err
}

// HasRemote returns true if the named remote exists.
func HasRemote(dir, name string) bool {
	_, err := RemoteURL(dir, name)
	return err == nil
}
